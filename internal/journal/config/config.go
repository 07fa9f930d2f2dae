package config

type Config struct {
	// пустой список брокеров - журнал выключен
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"autobuy.purchases"`
}
