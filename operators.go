package streams

import (
	"context"
	"iter"
	"slices"

	"github.com/andriiyaremenko/streams/internal"
)

// FromSeq returns Pipeline emitting values of seq in order.
// seq may be infinite: it is iterated only as values are pulled
// and stopped when the pipeline is disposed.
func FromSeq[T any](seq iter.Seq[T], opts ...Option) Pipeline[T] {
	delay := newOptions(opts).delay

	return Generate(func(ctx context.Context, yield func(T) bool) error {
		first := true
		for v := range seq {
			if !first {
				if err := Sleep(ctx, delay); err != nil {
					return err
				}
			}

			first = false

			if !yield(v) {
				return nil
			}
		}

		return nil
	}, opts...)
}

// FromSlice returns Pipeline emitting items in order.
func FromSlice[T any](items []T, opts ...Option) Pipeline[T] {
	return FromSeq(slices.Values(items), opts...)
}

// FromFutures returns Pipeline emitting results of items in order.
// Each item is awaited before it is emitted; a failed item fails the pipeline.
func FromFutures[T any](items []Awaitable[T], opts ...Option) Pipeline[T] {
	delay := newOptions(opts).delay

	return Generate(func(ctx context.Context, yield func(T) bool) error {
		for i, item := range items {
			if i > 0 {
				if err := Sleep(ctx, delay); err != nil {
					return err
				}
			}

			v, err := item.Await(ctx)
			if err != nil {
				return err
			}

			if !yield(v) {
				return nil
			}
		}

		return nil
	}, opts...)
}

// Map returns Pipeline of handle results for every value of p.
// p is pulled only when the returned Pipeline is pulled.
// An error returned by handle fails the returned Pipeline and disposes p.
func Map[T, U any](p Pipeline[T], handle Handle[T, U]) Pipeline[U] {
	handle = withRecovery(handle)

	return newPulled(
		func(ctx context.Context) (U, bool, error) {
			v, ok, err := p.Continue(ctx)
			if err != nil || !ok {
				return internal.Zero[U](), false, err
			}

			u, err := handle(ctx, v)
			if err != nil {
				return internal.Zero[U](), false, err
			}

			return u, true, nil
		},
		p.Dispose,
	)
}

// Filter returns Pipeline of values of p for which keep returns true, in the same order.
// An error returned by keep fails the returned Pipeline and disposes p.
func Filter[T any](p Pipeline[T], keep Predicate[T]) Pipeline[T] {
	keep = withRecovery(keep)

	return newPulled(
		func(ctx context.Context) (T, bool, error) {
			for {
				v, ok, err := p.Continue(ctx)
				if err != nil || !ok {
					return internal.Zero[T](), false, err
				}

				matched, err := keep(ctx, v)
				if err != nil {
					return internal.Zero[T](), false, err
				}

				if matched {
					return v, true, nil
				}
			}
		},
		p.Dispose,
	)
}

// Concat returns Pipeline emitting all values of each pipeline in turn.
// Next pipeline is pulled only after the previous one is exhausted.
// Failure of any pipeline fails the result; pipelines after it are never pulled.
func Concat[T any](pipelines []Pipeline[T], opts ...Option) (Pipeline[T], error) {
	if err := validatePipelines(pipelines); err != nil {
		return nil, err
	}

	logger := newOptions(opts).logger
	pipelines = slices.Clone(pipelines)
	current := 0

	return newPulled(
		func(ctx context.Context) (T, bool, error) {
			for current < len(pipelines) {
				v, ok, err := pipelines[current].Continue(ctx)
				if err != nil {
					return internal.Zero[T](), false, err
				}

				if ok {
					return v, true, nil
				}

				current++
			}

			return internal.Zero[T](), false, nil
		},
		func() {
			logger.Debug().Int("pipelines", len(pipelines)).Msg("disposing concatenated pipelines")
			disposeAll(pipelines)()
		},
	), nil
}
