package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"filevault/internal/model"
)

const popTimeout = 5 * time.Second

// RedisQueue implements Queue with the Redis reliable-queue pattern: jobs wait
// on a pending list and are moved to a processing list while in flight. Ack
// removes the in-flight copy; Nack pushes it back to pending. Jobs stranded on
// the processing list (worker crash) are requeued by RequeueInFlight.
type RedisQueue struct {
	client     *redis.Client
	pending    string
	processing string
}

// NewRedisQueue wraps an already-connected Redis client. name is the pending
// list key; the processing list derives from it.
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		client:     client,
		pending:    name,
		processing: name + ":processing",
	}
}

var _ Queue = (*RedisQueue)(nil)

func (q *RedisQueue) Enqueue(ctx context.Context, job model.ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.pending, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		payload, err := q.client.BRPopLPush(ctx, q.pending, q.processing, popTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Timed out with an empty list; poll again unless cancelled.
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue job: %w", err)
		}

		var job model.ThumbnailJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			// Malformed payload: drop it from the processing list and move on.
			_ = q.client.LRem(ctx, q.processing, 1, payload).Err()
			continue
		}

		return &Delivery{
			Job: job,
			ack: func(ctx context.Context) error {
				return q.client.LRem(ctx, q.processing, 1, payload).Err()
			},
			nack: func(ctx context.Context) error {
				pipe := q.client.TxPipeline()
				pipe.LRem(ctx, q.processing, 1, payload)
				pipe.LPush(ctx, q.pending, payload)
				_, err := pipe.Exec(ctx)
				return err
			},
		}, nil
	}
}

// RequeueInFlight moves every job on the processing list back to pending.
// Called at startup so jobs orphaned by a crashed worker are redelivered.
func (q *RedisQueue) RequeueInFlight(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.RPopLPush(ctx, q.processing, q.pending).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, fmt.Errorf("requeue in-flight job: %w", err)
		}
		moved++
	}
}
