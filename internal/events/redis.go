package events

import (
    "context"
    "fmt"

    "github.com/redis/go-redis/v9"
)

// Redis publishes events on a pub/sub channel.
type Redis struct {
    rdb     *redis.Client
    channel string
}

// NewRedis connects to the server at url (redis://host:port/db).
func NewRedis(url, channel string) (*Redis, error) {
    opts, err := redis.ParseURL(url)
    if err != nil {
        return nil, fmt.Errorf("redis url: %w", err)
    }
    return &Redis{rdb: redis.NewClient(opts), channel: channel}, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Publish(ctx context.Context, ev Event) error {
    b, err := ev.payload()
    if err != nil {
        return err
    }
    if err := r.rdb.Publish(ctx, r.channel, b).Err(); err != nil {
        return fmt.Errorf("redis publish %s: %w", r.channel, err)
    }
    return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
