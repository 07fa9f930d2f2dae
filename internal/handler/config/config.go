package config

import "time"

type Config struct {
	ServerAddr     string        `envconfig:"SERVER_ADDR" default:":8080"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	// лимит тела запроса
	MaxBodySize int64 `envconfig:"SERVER_MAX_BODY" default:"65536"`
}
