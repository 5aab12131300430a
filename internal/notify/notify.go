package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Notifier delivers a status message to a user. Delivery is
// at-least-once and fire-and-forget; duplicates are acceptable.
type Notifier interface {
	Dispatch(ctx context.Context, userID int64, message string) error
}

type Notification struct {
	UserID  int64     `json:"user_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// RedisNotifier publishes notifications on a per-user pub/sub channel
// that delivery consumers subscribe to.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: redisClient}
}

func (n *RedisNotifier) Dispatch(ctx context.Context, userID int64, message string) error {
	payload, err := json.Marshal(Notification{
		UserID:  userID,
		Message: message,
		SentAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	channel := fmt.Sprintf("notifications:user:%d", userID)
	return n.redis.Publish(ctx, channel, payload).Err()
}
