package config

import "time"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Cooldown   time.Duration `envconfig:"COOLDOWN" default:"600s"`
	MaxEntries int           `envconfig:"COOLDOWN_MAX_ENTRIES" default:"10000"`
	Backend    string        `envconfig:"COOLDOWN_BACKEND" default:"memory"`
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB    int           `envconfig:"REDIS_DB" default:"0"`
}
