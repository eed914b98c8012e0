package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Level is the severity of a toast notification
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

type Bus struct {
	rdb   *redis.Client
	log   *zap.Logger
	wsHub WSHub
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

// New returns a bus. With a nil client events only reach the local hub;
// otherwise they go through Redis so every instance can deliver them.
func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// Notify sends a toast to every session of userID
func (b *Bus) Notify(ctx context.Context, userID string, level Level, message string) error {
	return b.Publish(ctx, "notify:"+userID, map[string]interface{}{
		"type":    "toast",
		"level":   level,
		"message": message,
	})
}

// Changed tells open list views of screen that a record was written
func (b *Bus) Changed(ctx context.Context, screen, id, action string) error {
	return b.Publish(ctx, "screen:"+screen, map[string]interface{}{
		"type":   "changed",
		"id":     id,
		"action": action,
	})
}

// Publish publishes an event to a channel
func (b *Bus) Publish(ctx context.Context, channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if b.rdb == nil {
		b.deliver(channel, event)
		return nil
	}

	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		// still reach the sessions held by this instance
		b.deliver(channel, event)
		return err
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}

func (b *Bus) deliver(channel string, event map[string]interface{}) {
	if b.wsHub != nil {
		b.wsHub.Publish(channel, event)
	}
}

// Listen forwards events published by any instance to the local hub until
// ctx is done. It is a no-op without Redis.
func (b *Bus) Listen(ctx context.Context) error {
	if b.rdb == nil {
		<-ctx.Done()
		return nil
	}
	sub := b.rdb.PSubscribe(ctx, "notify:*", "screen:*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("Dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			b.deliver(msg.Channel, event)
		}
	}
}
