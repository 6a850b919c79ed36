package streams

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/andriiyaremenko/streams/internal"
)

// Pipeline is an ordered sequence of values produced asynchronously
// and pulled by a single consumer.
type Pipeline[T any] interface {
	// Continue blocks until the next value is available (ok is true),
	// the pipeline is exhausted (ok is false, err is nil)
	// or the pipeline failed (err is the failure).
	// Once exhausted or failed, every further call returns the same result.
	// Cancelling ctx abandons the pull without consuming a value.
	// Calling Continue while another Continue is in progress returns ErrConcurrentContinue.
	Continue(ctx context.Context) (value T, ok bool, err error)

	// Dispose tells producers that no more values are wanted.
	// It never blocks and can be called any number of times.
	Dispose()
}

// pulled is a Pipeline computing each value on demand from the pipelines it owns.
// It records terminal state so that next is never called after end or failure.
type pulled[T any] struct {
	next    func(context.Context) (T, bool, error)
	release func()

	busy        atomic.Bool
	releaseOnce sync.Once

	mu       sync.Mutex
	ended    bool
	disposed bool
	err      error
}

func newPulled[T any](next func(context.Context) (T, bool, error), release func()) *pulled[T] {
	return &pulled[T]{next: next, release: release}
}

func (p *pulled[T]) Continue(ctx context.Context) (T, bool, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return internal.Zero[T](), false, ErrConcurrentContinue
	}
	defer p.busy.Store(false)

	if terminated, err := p.terminal(); terminated {
		return internal.Zero[T](), false, err
	}

	v, ok, err := p.next(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return internal.Zero[T](), false, err
		}

		// upstream is pulled by someone else, it is still usable
		if errors.Is(err, ErrConcurrentContinue) {
			return internal.Zero[T](), false, err
		}

		err = p.finish(err)
		p.releaseUpstream()

		return internal.Zero[T](), false, err
	}

	if !ok {
		return internal.Zero[T](), false, p.finish(nil)
	}

	if terminated, err := p.terminal(); terminated {
		return internal.Zero[T](), false, err
	}

	return v, true, nil
}

func (p *pulled[T]) Dispose() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()

	p.releaseUpstream()
}

func (p *pulled[T]) terminal() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ended || p.disposed || p.err != nil, p.err
}

// finish records terminal state and returns the error Continue should report.
// A failure arriving after disposal is dropped.
func (p *pulled[T]) finish(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended || p.err != nil {
		return p.err
	}

	if p.disposed {
		return nil
	}

	if err != nil {
		p.err = err
	} else {
		p.ended = true
	}

	return p.err
}

func (p *pulled[T]) releaseUpstream() {
	if p.release == nil {
		return
	}

	p.releaseOnce.Do(p.release)
}

func disposeAll[T any](pipelines []Pipeline[T]) func() {
	return func() {
		for _, p := range pipelines {
			p.Dispose()
		}
	}
}
