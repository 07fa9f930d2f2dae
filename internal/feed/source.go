package feed

import (
	"context"
	"os"

	"github.com/RajshekharX12/as/internal/feed/config"
	"github.com/RajshekharX12/as/internal/service/marketclient"
)

// Source - один источник сырых данных ленты
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

type apiSource struct {
	client marketclient.MarketClient
}

func NewAPISource(client marketclient.MarketClient) Source {
	return &apiSource{client: client}
}

func (source *apiSource) Name() string {
	return config.SourceAPI
}

func (source *apiSource) Fetch(ctx context.Context) ([]byte, error) {
	return source.client.GetAvailableOffers(ctx)
}

// fileSource читает JSON документ, который пишет внешний наблюдатель
type fileSource struct {
	path string
}

func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (source *fileSource) Name() string {
	return config.SourceFile
}

func (source *fileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(source.path)
}
