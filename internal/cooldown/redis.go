package cooldown

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "autobuy:cooldown:"

type redisTracker struct {
	client   *redis.Client
	scope    string
	cooldown time.Duration
}

// NewRedisTracker хранит отметки (unix-наносекунды) в Redis; TTL ключа равен cooldown,
// поэтому устаревшие записи удаляет сам Redis.
func NewRedisTracker(client *redis.Client, scope string, cooldown time.Duration) Tracker {
	return &redisTracker{client: client, scope: scope, cooldown: cooldown}
}

func (tracker *redisTracker) key(offerID string) string {
	return keyPrefix + tracker.scope + ":" + offerID
}

func (tracker *redisTracker) ShouldProcess(ctx context.Context, offerID string, now time.Time) (bool, error) {
	value, err := tracker.client.Get(ctx, tracker.key(offerID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	lastSeen, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// битое значение не должно блокировать предложение навсегда
		return true, nil
	}
	return now.Sub(time.Unix(0, lastSeen)) >= tracker.cooldown, nil
}

// Mark хранит время в наносекундах без округления до секунды
func (tracker *redisTracker) Mark(ctx context.Context, offerID string, now time.Time) error {
	return tracker.client.Set(ctx, tracker.key(offerID), strconv.FormatInt(now.UnixNano(), 10), tracker.cooldown).Err()
}
