package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/speakhq/speakadmin/core"
)

// RedisBus shares invalidations between API instances over Redis pub/sub.
// Every instance relays what it receives to its local Broker.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *Broker
	logger  core.Logger
}

var _ core.Invalidator = (*RedisBus)(nil)

func NewRedisBus(redisURL, channel string, logger core.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return NewRedisBusFromClient(client, channel, logger), nil
}

func NewRedisBusFromClient(client *redis.Client, channel string, logger core.Logger) *RedisBus {
	return &RedisBus{client: client, channel: channel, local: NewBroker(), logger: logger}
}

func (b *RedisBus) Invalidate(ctx context.Context, views ...string) error {
	if len(views) == 0 {
		return nil
	}
	payload, err := json.Marshal(core.Invalidation{Views: views})
	if err != nil {
		return err
	}
	return errors.Wrap(b.client.Publish(ctx, b.channel, payload).Err(), "publishing invalidation")
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan core.Invalidation, error) {
	return b.local.Subscribe(ctx)
}

// Run relays the Redis channel to local subscribers until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribing to invalidation channel")
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var inv core.Invalidation
			if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil {
				b.logger.Warn("dropping malformed invalidation", err, map[string]interface{}{"payload": msg.Payload})
				continue
			}
			b.local.broadcast(inv)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
