package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is the abstraction over notification transports.
type Queue interface {
	Publish(ctx context.Context, n Notice) error
	Consume(ctx context.Context) (<-chan Notice, error)
}

// InMemoryQueue is a bounded channel-backed queue for dev/testing.
type InMemoryQueue struct {
	ch chan Notice
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(size int) *InMemoryQueue {
	return &InMemoryQueue{ch: make(chan Notice, size)}
}

func (q *InMemoryQueue) Publish(ctx context.Context, n Notice) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			select {
			case n := <-q.ch:
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

const defaultQueueKey = "cleargate:notices"

// RedisQueue implements a Redis list-backed queue using LPUSH/BRPOP, so the
// worker survives server restarts without losing queued notices.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = defaultQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Publish(ctx context.Context, n Notice) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

func (q *RedisQueue) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var n Notice
			if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
