package config

import "time"

const (
	SourceAPI  = "api"
	SourceFile = "file"
)

type Config struct {
	// основной источник: api или file
	Mode string `envconfig:"FEED_MODE" default:"api"`
	// путь к JSON документу ленты; пустой - файлового источника нет
	File    string        `envconfig:"FEED_FILE"`
	Timeout time.Duration `envconfig:"FEED_TIMEOUT" default:"15s"`
	// сколько держать результат для остальных движков; 0 - без кеша
	CacheTTL time.Duration `envconfig:"FEED_CACHE_TTL" default:"1s"`
}
