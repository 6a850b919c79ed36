package streams

import (
	"context"
	"time"

	"github.com/andriiyaremenko/streams/internal"
	"golang.org/x/sync/errgroup"
)

var _ Awaitable[any] = new(Future[any])

// Awaitable is a result that becomes available later.
type Awaitable[T any] interface {
	// Await blocks until the result is available or ctx is done.
	Await(ctx context.Context) (T, error)
}

// Future is the eventual result of a function started with Spawn.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Spawn runs fn in its own goroutine and returns its eventual result.
// A panic in fn resolves the Future with *PanicError.
func Spawn[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.value, f.err = internal.Zero[T](), newPanicError(r)
			}
		}()

		f.value, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns Future already holding v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: v}
	close(f.done)

	return f
}

// Rejected returns Future already holding err.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)

	return f
}

func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return internal.Zero[T](), ctx.Err()
	}
}

// Done returns a channel closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// AwaitAll waits for every awaitable and returns their results in the same order.
// It returns the first failure as soon as it happens.
func AwaitAll[T any](ctx context.Context, awaitables ...Awaitable[T]) ([]T, error) {
	results := make([]T, len(awaitables))
	g, ctx := errgroup.WithContext(ctx)

	for i, a := range awaitables {
		g.Go(func() error {
			v, err := a.Await(ctx)
			if err != nil {
				return err
			}

			results[i] = v

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Sleep pauses the calling goroutine for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
