package queue

import (
	"context"
	"sync"

	"filevault/internal/model"
)

// MemoryQueue is an in-process Queue built on a buffered channel. Nack feeds
// the job back into the channel, preserving the at-least-once contract for
// tests and single-node deployments.
type MemoryQueue struct {
	jobs chan model.ThumbnailJob

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryQueue creates a MemoryQueue holding at most size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		jobs:   make(chan model.ThumbnailJob, size),
		closed: make(chan struct{}),
	}
}

var _ Queue = (*MemoryQueue)(nil)

func (q *MemoryQueue) Enqueue(ctx context.Context, job model.ThumbnailJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	select {
	case job := <-q.jobs:
		return &Delivery{
			Job: job,
			nack: func(ctx context.Context) error {
				return q.Enqueue(ctx, job)
			},
		}, nil
	case <-q.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unblocks pending Dequeue calls. Enqueued but unconsumed jobs are lost,
// which is acceptable for the in-memory variant.
func (q *MemoryQueue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Len reports the number of buffered jobs. Test helper.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
