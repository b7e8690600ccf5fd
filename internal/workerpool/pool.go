// Package workerpool bounds the number of concurrent CPU- or IO-heavy calls
// such as face extraction.
package workerpool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool is a fixed number of execution slots.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with size slots. size <= 0 means runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Do runs fn in a pool slot and waits for its result. If ctx ends first, Do
// returns ctx.Err() immediately; fn keeps its slot until it returns, so
// abandoned work still counts against capacity.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("worker panic: %v", r)}
			}
		}()

		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}
