package streams

import "context"

// ForEach pulls every value of p and calls fn with it.
// It returns the failure of p or the first error returned by fn.
// p is disposed when ForEach returns.
func ForEach[T any](ctx context.Context, p Pipeline[T], fn func(context.Context, T) error) error {
	defer p.Dispose()

	for {
		v, ok, err := p.Continue(ctx)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		if err := fn(ctx, v); err != nil {
			return err
		}
	}
}

// Reduce folds values of p into seed.
// On failure it returns the value accumulated so far along with the error.
func Reduce[T, U any](ctx context.Context, p Pipeline[T], seed U, reduce func(U, T) U) (U, error) {
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		seed = reduce(seed, v)

		return nil
	})

	return seed, err
}

// ToSlice returns all values of p in emission order.
func ToSlice[T any](ctx context.Context, p Pipeline[T]) ([]T, error) {
	return Reduce(ctx, p, make([]T, 0), func(values []T, v T) []T {
		return append(values, v)
	})
}

// Discard pulls p to the end, dropping its values, and returns how many were dropped.
func Discard[T any](ctx context.Context, p Pipeline[T]) (int, error) {
	return Reduce(ctx, p, 0, func(count int, _ T) int {
		return count + 1
	})
}
