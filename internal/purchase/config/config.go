package config

import "time"

type Config struct {
	BuyTimeout    time.Duration `envconfig:"BUY_TIMEOUT" default:"20s"`
	SnowflakeNode int64         `envconfig:"SNOWFLAKE_NODE" default:"1"`
}
