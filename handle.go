package streams

import (
	"context"

	"github.com/andriiyaremenko/streams/internal"
)

// Handle transforms single value for Map.
type Handle[T, U any] func(context.Context, T) (U, error)

// Predicate decides whether Filter keeps a value.
type Predicate[T any] func(context.Context, T) (bool, error)

// Constructs Handle from function, that has only error output.
func LiftErr[U, T any, Fn func(context.Context, T) error](fn Fn) Handle[T, U] {
	return func(ctx context.Context, v T) (U, error) {
		return internal.Zero[U](), fn(ctx, v)
	}
}

// Constructs Handle from function, that has no error output.
func LiftOk[T, U any, Fn func(context.Context, T) U](fn Fn) Handle[T, U] {
	return func(ctx context.Context, v T) (U, error) {
		return fn(ctx, v), nil
	}
}

// Constructs Handle from function, that has no context input.
func LiftNoContext[T, U any, Fn func(T) (U, error)](fn Fn) Handle[T, U] {
	return func(_ context.Context, v T) (U, error) {
		return fn(v)
	}
}

// Constructs Predicate from plain boolean function.
func LiftPredicate[T any, Fn func(T) bool](fn Fn) Predicate[T] {
	return func(_ context.Context, v T) (bool, error) {
		return fn(v), nil
	}
}

// Combines two Handles into one with input type T and output type N.
func AppendHandle[T, U, N any, H1 Handle[T, U], H2 Handle[U, N]](h1 H1, h2 H2) Handle[T, N] {
	return func(ctx context.Context, v T) (N, error) {
		u, err := h1(ctx, v)
		if err != nil {
			return internal.Zero[N](), err
		}

		return h2(ctx, u)
	}
}

func withRecovery[T, U any](handle func(context.Context, T) (U, error)) func(context.Context, T) (U, error) {
	return func(ctx context.Context, v T) (u U, err error) {
		defer func() {
			if r := recover(); r != nil {
				u, err = internal.Zero[U](), newPanicError(r)
			}
		}()

		return handle(ctx, v)
	}
}
