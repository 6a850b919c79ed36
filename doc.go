// This package provides pull-based pipelines: values produced asynchronously
// and handed to a single consumer one at a time, the producer waiting until
// the consumer has taken the previous value.

// To install streams:
// 	go get -u github.com/andriiyaremenko/streams

// How to use:
//
// Source:
// import (
// 	"context"
//
// 	"github.com/andriiyaremenko/streams"
// )
// func main() {
// 	ctx := context.Background()
//
// 	src := streams.NewSource[int]()
// 	go func() {
// 		for i := 0; i < 3; i++ {
// 			// blocks until the value is pulled
// 			if listening, _ := src.Yield(ctx, i); !listening {
// 				return
// 			}
// 		}
//
// 		src.Complete()
// 	}()
//
// 	p := src.Pipeline()
// 	for {
// 		v, ok, err := p.Continue(ctx)
// 		if err != nil {
// 			// ...
// 		}
//
// 		if !ok {
// 			break
// 		}
//
// 		// use v
// 	}
// }
//
// Generator and combinators:
// import (
// 	"context"
//
// 	"github.com/andriiyaremenko/streams"
// )
// func main() {
// 	ctx := context.Background()
//
// 	numbers := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
// 		for i := 0; ; i++ {
// 			if !yield(i) {
// 				return nil
// 			}
// 		}
// 	})
// 	words := streams.FromSlice([]string{"a", "b"})
//
// 	evens := streams.Filter(numbers, streams.LiftPredicate(func(n int) bool { return n%2 == 0 }))
// 	labels := streams.Map(evens, streams.LiftOk(func(_ context.Context, n int) string { return strconv.Itoa(n) }))
//
// 	merged, err := streams.Merge([]streams.Pipeline[string]{labels, words})
// 	if err != nil {
// 		// ...
// 	}
//
// 	// Pipeline is disposed once ForEach returns.
// 	err = streams.ForEach(ctx, merged, func(ctx context.Context, s string) error {
// 		// ...
// 	})
// }
package streams
