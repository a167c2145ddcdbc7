package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gtkm_synth/gtkm"
)

const DefaultRedisKey = "gtkm:examples"

// RedisOptions configures the Redis list sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisPublisher pushes every example onto the tail of a Redis list.
type RedisPublisher struct {
	client *redis.Client
	key    string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, opts RedisOptions) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	key := opts.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisPublisher{client: rdb, key: key}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ex gtkm.Example) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return err
	}
	if err := p.client.RPush(ctx, p.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", p.key, err)
	}
	return nil
}

// Len returns the number of examples stored under the list key.
func (p *RedisPublisher) Len(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.key).Result()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
