// Package workerpool runs blocking jobs on a bounded set of goroutines so the
// caller only ever waits on a channel or its own context.
package workerpool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Pool struct {
	sem  *semaphore.Weighted
	size int64
	done chan struct{}
}

func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
		done: make(chan struct{}),
	}
}

// Size is the number of jobs that may run at once
func (p *Pool) Size() int { return int(p.size) }

// Close stops accepting new jobs and waits for running ones to finish
func (p *Pool) Close(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	default:
		close(p.done)
	}
	return p.sem.Acquire(ctx, p.size)
}

// Submit runs fn on a pool slot and returns its result. If ctx ends first,
// Submit returns ctx.Err() and the job keeps its slot until fn returns.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) T) (T, error) {
	var zero T
	select {
	case <-p.done:
		return zero, ErrPoolClosed
	default:
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("waiting for worker: %w", err)
	}

	out := make(chan T, 1)
	go func() {
		defer p.sem.Release(1)
		out <- fn(ctx)
	}()

	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
