package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher pushes realtime hints about new notifications. The sink is
// pluggable; the engine only ever calls NotifyNew.
type Publisher interface {
	NotifyNew(ctx context.Context, userID uuid.UUID, n *Notification, unreadCount int) error
}

// RedisPublisher fans notification events out over Redis pub/sub. Consumers
// subscribe to notifications:{userID}.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a Redis-backed publisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

type newEvent struct {
	Event        string        `json:"event"`
	Notification *Notification `json:"notification"`
	UnreadCount  int           `json:"unread_count"`
}

func (p *RedisPublisher) NotifyNew(ctx context.Context, userID uuid.UUID, n *Notification, unreadCount int) error {
	payload, err := json.Marshal(newEvent{
		Event:        "notification:new",
		Notification: n,
		UnreadCount:  unreadCount,
	})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, fmt.Sprintf("notifications:%s", userID), payload).Err()
}

// NoopPublisher is used when Redis is not configured.
type NoopPublisher struct{}

func (NoopPublisher) NotifyNew(context.Context, uuid.UUID, *Notification, int) error { return nil }
