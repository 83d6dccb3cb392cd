package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyna/storefront/internal/modules/order"
)

const queueKey = "storefront:notifications"

// RedisQueue is a FIFO list in redis: LPUSH to enqueue, BRPOP to consume.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: queueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// NotifyOrderConfirmed queues the confirmation email for o.
func (q *RedisQueue) NotifyOrderConfirmed(ctx context.Context, o *order.Order) error {
	return q.Enqueue(ctx, NewOrderConfirmed(o))
}

// Pop blocks for up to wait and returns nil when nothing arrived.
func (q *RedisQueue) Pop(ctx context.Context, wait time.Duration) (*Message, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop notification: %w", err)
	}
	// res is [key, value].
	var m Message
	if err := json.Unmarshal([]byte(res[1]), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &m, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// MemoryQueue is the in-process queue used when no redis is configured.
// Messages are lost on restart.
type MemoryQueue struct{ ch chan Message }

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Message, size)}
}

func (q *MemoryQueue) NotifyOrderConfirmed(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- NewOrderConfirmed(o):
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, wait time.Duration) (*Message, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case m := <-q.ch:
		return &m, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
