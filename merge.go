package streams

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var _ Pipeline[any] = new(merged[any])

var errNotListening = errors.New("merged pipeline is not listening")

// Merge returns Pipeline emitting values of all pipelines as soon as they are available.
// There is no ordering between values of different pipelines.
// It completes when all pipelines complete and fails with the first failure of any of them,
// disposing the rest. Disposing it disposes every pipeline.
func Merge[T any](pipelines []Pipeline[T], opts ...Option) (Pipeline[T], error) {
	if err := validatePipelines(pipelines); err != nil {
		return nil, err
	}

	o := newOptions(opts)
	src := NewSource[T](opts...)

	return &merged[T]{
		ctx:    o.ctx,
		logger: o.logger,
		inputs: slices.Clone(pipelines),
		src:    src,
		view:   src.Pipeline(),
	}, nil
}

type merged[T any] struct {
	ctx    context.Context
	logger zerolog.Logger
	inputs []Pipeline[T]
	src    *Source[T]
	view   Pipeline[T]

	start   sync.Once
	release sync.Once
}

func (m *merged[T]) Continue(ctx context.Context) (T, bool, error) {
	m.start.Do(m.run)

	return m.view.Continue(ctx)
}

func (m *merged[T]) Dispose() {
	m.src.Dispose()
	m.disposeInputs()
}

func (m *merged[T]) run() {
	if m.src.isDisposed() {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, in := range m.inputs {
		g.Go(func() error {
			return m.forward(gctx, in)
		})
	}

	go func() {
		defer cancel()

		select {
		case <-m.src.Disposed():
		case <-ctx.Done():
		}
	}()

	go func() {
		defer cancel()

		if err := g.Wait(); err != nil {
			if !m.src.isTerminated() {
				_ = m.src.Fail(err)
			}

			m.disposeInputs()

			return
		}

		if err := m.src.Complete(); err != nil {
			m.logger.Error().Err(err).Msg("merged pipeline could not complete")
		}
	}()
}

func (m *merged[T]) forward(ctx context.Context, in Pipeline[T]) error {
	for {
		v, ok, err := in.Continue(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return err
			}

			m.fail(err)

			return err
		}

		if !ok {
			return nil
		}

		listening, err := m.src.Yield(ctx, v)
		if err != nil {
			return err
		}

		if !listening {
			return errNotListening
		}
	}
}

func (m *merged[T]) fail(err error) {
	if !m.src.isTerminated() && m.src.Fail(err) == nil {
		m.logger.Debug().Err(err).Msg("merged pipeline failed")
	}

	m.disposeInputs()
}

func (m *merged[T]) disposeInputs() {
	m.release.Do(func() {
		m.logger.Debug().Int("pipelines", len(m.inputs)).Msg("disposing merged pipelines")
		disposeAll(m.inputs)()
	})
}
