package queue

import (
	"context"
	"errors"

	"filevault/internal/model"
)

// Package queue provides at-least-once delivery of thumbnail jobs.
// Consumers must acknowledge completed jobs; unacknowledged jobs are
// redelivered, so processing has to be idempotent.

// ErrClosed is returned by Dequeue once the queue is shut down.
var ErrClosed = errors.New("queue closed")

// Delivery is one dequeued job together with its acknowledgment handles.
type Delivery struct {
	Job model.ThumbnailJob

	ack  func(context.Context) error
	nack func(context.Context) error
}

// Ack marks the job as done; it will not be delivered again.
func (d *Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Nack returns the job to the queue for redelivery.
func (d *Delivery) Nack(ctx context.Context) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// Queue is a durable FIFO-ish job queue with consumer acknowledgment.
type Queue interface {
	// Enqueue appends a job. Failures are infrastructure errors; callers
	// decide whether they are fatal (the upload path treats them as best-effort).
	Enqueue(ctx context.Context, job model.ThumbnailJob) error

	// Dequeue blocks until a job is available, the context is cancelled, or
	// the queue is closed (ErrClosed).
	Dequeue(ctx context.Context) (*Delivery, error)
}
