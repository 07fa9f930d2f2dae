package config

type Config struct {
	Enabled     bool   `envconfig:"TRACING_ENABLED" default:"false"`
	ServiceName string `envconfig:"TRACING_SERVICE_NAME" default:"autobuyer"`
	Environment string `envconfig:"TRACING_ENVIRONMENT" default:"development"`
}
