package config

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// json или console
	Encoding string `envconfig:"LOG_ENCODING" default:"json"`
	// Логировать тела запросов и ответов
	LogBodies bool `envconfig:"LOG_HTTP_BODIES" default:"false"`
}
