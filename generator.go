package streams

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

var _ Pipeline[any] = new(generated[any])

// Generator produces values by calling yield.
// yield blocks until the value is consumed and the next one is requested;
// it returns false once the pipeline is disposed, and ctx is cancelled at the same time.
// Returning nil completes the pipeline, returning an error fails it.
type Generator[T any] func(ctx context.Context, yield func(T) bool) error

// Generate returns Pipeline driven by gen.
// gen is started by the first Continue and runs only while values are requested.
func Generate[T any](gen Generator[T], opts ...Option) Pipeline[T] {
	o := newOptions(opts)
	src := NewSource[T](opts...)

	return &generated[T]{
		ctx:    o.ctx,
		logger: o.logger,
		gen:    gen,
		src:    src,
		view:   src.Pipeline(),
	}
}

type generated[T any] struct {
	ctx    context.Context
	logger zerolog.Logger
	gen    Generator[T]
	src    *Source[T]
	view   Pipeline[T]
	start  sync.Once
}

func (g *generated[T]) Continue(ctx context.Context) (T, bool, error) {
	g.start.Do(g.run)

	return g.view.Continue(ctx)
}

func (g *generated[T]) Dispose() {
	g.src.Dispose()
}

func (g *generated[T]) run() {
	if g.src.isDisposed() {
		return
	}

	ctx, cancel := context.WithCancel(g.ctx)

	go func() {
		defer cancel()

		select {
		case <-g.src.Disposed():
		case <-ctx.Done():
		}
	}()

	go func() {
		defer cancel()

		if ok, _ := g.src.Demand(ctx); !ok {
			g.settle(ctx.Err())

			return
		}

		g.logger.Debug().Msg("generator started")

		err := g.call(ctx, cancel)
		if err == nil {
			err = ctx.Err()
		}

		g.settle(err)
	}()
}

func (g *generated[T]) call(ctx context.Context, cancel context.CancelFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Interface("panic", r).Msg("generator panicked")

			err = newPanicError(r)
		}
	}()

	return g.gen(ctx, func(v T) bool {
		listening, err := g.src.Yield(ctx, v)
		if listening && err == nil {
			listening, _ = g.src.Demand(ctx)
		}

		if !listening {
			cancel()
		}

		return listening
	})
}

// settle records how the generator finished. After disposal the result is ignored.
func (g *generated[T]) settle(err error) {
	if g.src.isDisposed() {
		return
	}

	var settleErr error
	if err != nil {
		settleErr = g.src.Fail(err)
	} else {
		settleErr = g.src.Complete()
	}

	if settleErr != nil {
		g.logger.Error().Err(settleErr).Msg("generator could not settle")
	}

	g.logger.Debug().Err(err).Msg("generator finished")
}
