package config

type Config struct {
	// пустой адрес - уведомления только в лог
	NatsURL       string `envconfig:"NATS_URL"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"autobuy"`
}
