package config

import "time"

type Config struct {
	MarketAddr string        `envconfig:"MARKET_ADDR" default:"https://api.telegram.org"`
	BotToken   string        `envconfig:"BOT_TOKEN"`
	Timeout    time.Duration `envconfig:"MARKET_TIMEOUT" default:"15s"`
}
