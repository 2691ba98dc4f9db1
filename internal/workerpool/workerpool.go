// Package workerpool runs blocking calls on a bounded set of goroutines so a
// slow upstream cannot tie up unrelated requests.
package workerpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of in-flight blocking calls.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New returns a pool allowing size concurrent calls. Defaults to 1 when size <= 0.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

func (p *Pool) Size() int { return p.size }

// Do runs fn on a pool goroutine and returns its error. A panic in fn is
// returned as an error. If ctx ends first Do returns ctx.Err(); fn keeps its
// slot until it returns.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("panic: %v", rec)
			}
		}()
		done <- fn(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call is Do for functions that produce a value.
func Call[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
