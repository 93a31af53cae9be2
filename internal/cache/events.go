package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// EventBus fans friend events out to every server instance over Redis Pub/Sub.
type EventBus struct {
	rdb     *redis.Client
	channel string
	logger  logrus.FieldLogger
}

func NewEventBus(rdb *redis.Client, channel string, logger logrus.FieldLogger) *EventBus {
	return &EventBus{rdb: rdb, channel: channel, logger: logger}
}

// Notify serializes ev to JSON and publishes it on the bus channel.
func (b *EventBus) Notify(ctx context.Context, ev models.FriendEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal FriendEvent: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to PUBLISH to '%s': %w", b.channel, err)
	}
	return nil
}

// Run subscribes to the bus channel and hands every decoded event to deliver until ctx is
// cancelled.
func (b *EventBus) Run(ctx context.Context, deliver func(context.Context, models.FriendEvent) error) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to '%s': %w", b.channel, err)
	}
	b.logger.WithField("channel", b.channel).Info("subscribed to friend events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.FriendEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.WithError(err).Warn("invalid friend event on bus")
				continue
			}
			if err := deliver(ctx, ev); err != nil {
				b.logger.WithError(err).WithField("event", ev.Type).Warn("failed to deliver friend event")
			}
		}
	}
}
