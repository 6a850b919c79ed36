package streams

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/andriiyaremenko/streams/internal"
	"github.com/rs/zerolog"
)

var _ Pipeline[any] = new(sourcePipeline[any])

type sourceState int

const (
	stateOpen sourceState = iota
	stateCompleted
	stateFailed
)

// Source is the producing side of a Pipeline.
// It holds at most one value in flight: Yield returns only after
// the consumer has received the value.
type Source[T any] struct {
	logger zerolog.Logger

	values   chan T
	demand   chan struct{}
	done     chan struct{}
	disposed chan struct{}

	mu      sync.Mutex
	state   sourceState
	err     error
	dispose sync.Once

	view *sourcePipeline[T]
}

// NewSource returns open Source.
func NewSource[T any](opts ...Option) *Source[T] {
	o := newOptions(opts)
	s := &Source[T]{
		logger:   o.logger,
		values:   make(chan T),
		demand:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		disposed: make(chan struct{}),
	}
	s.view = &sourcePipeline[T]{src: s}

	return s
}

// Pipeline returns consumer view of the Source.
func (s *Source[T]) Pipeline() Pipeline[T] {
	return s.view
}

// Yield hands v to the consumer and blocks until it is received.
// listening is false when the consumer is gone: the pipeline was disposed
// or failed while v was waiting, and the producer should stop.
// Yielding after Complete returns ErrSourceTerminated.
func (s *Source[T]) Yield(ctx context.Context, v T) (listening bool, err error) {
	select {
	case <-s.disposed:
		return false, nil
	case <-s.done:
		return false, s.yieldErr()
	default:
	}

	select {
	case s.values <- v:
		return true, nil
	case <-s.disposed:
		return false, nil
	case <-s.done:
		return false, s.yieldErr()
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Demand blocks until a consumer is waiting for a value.
// It returns false once the pipeline is disposed or terminated.
func (s *Source[T]) Demand(ctx context.Context) (bool, error) {
	select {
	case <-s.demand:
		return true, nil
	case <-s.disposed:
		return false, nil
	case <-s.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Complete marks the end of the sequence.
func (s *Source[T]) Complete() error {
	return s.terminate(stateCompleted, nil)
}

// Fail terminates the pipeline with err.
// Every following Continue returns err.
// A nil err returns ErrNilFailure and leaves the Source open.
func (s *Source[T]) Fail(err error) error {
	if err == nil {
		s.logger.Error().Msg("source failed with nil error")

		return ErrNilFailure
	}

	return s.terminate(stateFailed, err)
}

// Dispose stops the pipeline from the consumer side.
func (s *Source[T]) Dispose() {
	s.dispose.Do(func() {
		close(s.disposed)
		s.logger.Debug().Msg("source disposed")
	})
}

// Disposed returns a channel closed once the pipeline is disposed.
func (s *Source[T]) Disposed() <-chan struct{} {
	return s.disposed
}

func (s *Source[T]) isDisposed() bool {
	select {
	case <-s.disposed:
		return true
	default:
		return false
	}
}

func (s *Source[T]) isTerminated() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Source[T]) terminate(state sourceState, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		s.logger.Error().
			Err(err).
			Int("state", int(s.state)).
			Msg("source terminated twice")

		return ErrSourceTerminated
	}

	if s.isDisposed() {
		return nil
	}

	s.state = state
	s.err = err
	close(s.done)

	return nil
}

func (s *Source[T]) result() (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return internal.Zero[T](), false, s.err
}

// a failed source is no longer listened to, a completed one is misused.
func (s *Source[T]) yieldErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateCompleted {
		return ErrSourceTerminated
	}

	return nil
}

type sourcePipeline[T any] struct {
	src  *Source[T]
	busy atomic.Bool
}

func (p *sourcePipeline[T]) Continue(ctx context.Context) (T, bool, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return internal.Zero[T](), false, ErrConcurrentContinue
	}
	defer p.busy.Store(false)

	s := p.src

	select {
	case <-s.done:
		return s.result()
	case <-s.disposed:
		return s.result()
	default:
	}

	select {
	case s.demand <- struct{}{}:
	default:
	}

	select {
	case v := <-s.values:
		return v, true, nil
	case <-s.done:
		return s.result()
	case <-s.disposed:
		return s.result()
	case <-ctx.Done():
		return internal.Zero[T](), false, ctx.Err()
	}
}

func (p *sourcePipeline[T]) Dispose() {
	p.src.Dispose()
}
