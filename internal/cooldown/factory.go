package cooldown

import (
	"github.com/redis/go-redis/v9"

	"github.com/RajshekharX12/as/internal/cooldown/config"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

// Factory выдаёт отдельный трекер на каждого пользователя
type Factory func(scope string) Tracker

func NewRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
}

// NewFactory; client нужен только для бэкенда redis
func NewFactory(cfg config.Config, client *redis.Client) (Factory, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return func(string) Tracker {
			return NewMemoryTracker(cfg.Cooldown, cfg.MaxEntries)
		}, nil
	case config.BackendRedis:
		if client == nil {
			return nil, errs.New("redis cooldown backend without client")
		}
		return func(scope string) Tracker {
			return NewRedisTracker(client, scope, cfg.Cooldown)
		}, nil
	default:
		return nil, errs.Newf("unknown cooldown backend %q", cfg.Backend)
	}
}
