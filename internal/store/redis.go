package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TallyKey is the Redis hash holding per-session check-in counts,
// maintained by the tally worker.
const TallyKey = "smartattend:tally"

// Redis wraps the redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Tallies returns the per-session check-in counts as raw strings, or
// nil when redis is unavailable.
func (r *Redis) Tallies(ctx context.Context) map[string]string {
	if r == nil || r.Client == nil {
		return nil
	}
	res, err := r.Client.HGetAll(ctx, TallyKey).Result()
	if err != nil {
		return nil
	}
	return res
}
