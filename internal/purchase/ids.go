package purchase

import (
	"github.com/bwmarrin/snowflake"
)

type IDGenerator interface {
	NextID() int64
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

func NewIDGenerator(node int64) (IDGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &snowflakeGenerator{node: n}, nil
}

func (generator *snowflakeGenerator) NextID() int64 {
	return generator.node.Generate().Int64()
}
