package streams

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/andriiyaremenko/streams/internal"
)

var (
	_ error = new(PanicError)
	_ error = new(InvalidPipelineError)
)

var (
	// Returned by Continue when another Continue on the same Pipeline has not returned yet.
	ErrConcurrentContinue = errors.New("pipeline is already being pulled")

	// Returned by Source when it is completed or failed a second time,
	// or when a value is yielded after completion.
	ErrSourceTerminated = errors.New("source is already terminated")

	// Returned by Source.Fail when called with nil error.
	ErrNilFailure = errors.New("source failed with nil error")
)

// PanicError is the failure recorded when producing or transforming code panics.
type PanicError struct {
	Value any
}

func newPanicError(r any) *PanicError {
	return &PanicError{Value: r}
}

// Implementation of error.
func (err *PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", err.Value)
}

// Returns underlying error if panic was called with one.
func (err *PanicError) Unwrap() error {
	if cause, ok := err.Value.(error); ok {
		return cause
	}

	return nil
}

// InvalidPipelineError is returned by Merge and Concat
// when one of the inputs is not a usable Pipeline:
// it is nil or it was already passed as another element.
type InvalidPipelineError struct {
	Index int
	Value any
	// Index of the earlier element holding the same Pipeline, -1 if Value is nil.
	SameAs int

	elem string
}

func newInvalidPipelineError[T any](index int, value Pipeline[T], sameAs int) *InvalidPipelineError {
	return &InvalidPipelineError{
		Index:  index,
		Value:  value,
		SameAs: sameAs,
		elem:   internal.TypeName[T](),
	}
}

// Implementation of error.
func (err *InvalidPipelineError) Error() string {
	if err.SameAs >= 0 {
		return fmt.Sprintf(
			"element %d is not a separate pipeline of %s: same %s as element %d",
			err.Index,
			err.elem,
			internal.InstanceTypeName(err.Value),
			err.SameAs,
		)
	}

	return fmt.Sprintf(
		"element %d is not a pipeline of %s: got %s",
		err.Index,
		err.elem,
		internal.InstanceTypeName(err.Value),
	)
}

// validatePipelines rejects nil elements and a Pipeline passed more than once,
// since a Pipeline can only be pulled by one consumer.
func validatePipelines[T any](pipelines []Pipeline[T]) error {
	seen := make(map[any]int, len(pipelines))

	for i, p := range pipelines {
		if internal.IsNil(p) {
			return newInvalidPipelineError(i, p, -1)
		}

		// only references can be shared
		if reflect.TypeOf(p).Kind() != reflect.Pointer {
			continue
		}

		if j, ok := seen[p]; ok {
			return newInvalidPipelineError(i, p, j)
		}

		seen[p] = i
	}

	return nil
}
