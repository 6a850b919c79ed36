package streams_test

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/andriiyaremenko/streams"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// blocking is a Pipeline whose Continue waits until released.
type blocking struct {
	entered chan struct{}
	release chan struct{}
}

func newBlocking() *blocking {
	return &blocking{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blocking) Continue(ctx context.Context) (int, bool, error) {
	b.entered <- struct{}{}

	select {
	case <-b.release:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

func (b *blocking) Dispose() {}

func naturals() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; ; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

var _ = Describe("Operators", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		DeferCleanup(func() { cancel() })
	})

	Context("FromSlice", func() {
		It("should emit items in order and then end forever", func() {
			p := streams.FromSlice([]int{1, 2, 3})

			for _, expected := range []int{1, 2, 3} {
				v, ok, err := p.Continue(ctx)

				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(v).To(Equal(expected))
			}

			for i := 0; i < 3; i++ {
				_, ok, err := p.Continue(ctx)

				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeFalse())
			}
		})

		It("should reproduce any finite slice", func() {
			for _, items := range [][]string{{}, {"a"}, {"", "b", ""}, {"x", "y", "z", "w"}} {
				values, err := streams.ToSlice(ctx, streams.FromSlice(items))

				Expect(err).ShouldNot(HaveOccurred())
				Expect(values).To(Equal(items))
			}
		})

		It("should pace emissions with delay", func() {
			start := time.Now()
			values, err := streams.ToSlice(ctx, streams.FromSlice([]int{1, 2, 3}, streams.WithDelay(20*time.Millisecond)))

			Expect(err).ShouldNot(HaveOccurred())
			Expect(values).To(Equal([]int{1, 2, 3}))
			Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
		})
	})

	Context("FromSeq", func() {
		It("should take values from infinite sequence on demand", func() {
			p := streams.FromSeq(naturals())

			for i := 0; i < 5; i++ {
				v, ok, err := p.Continue(ctx)

				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(v).To(Equal(i))
			}

			p.Dispose()

			_, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Context("FromFutures", func() {
		It("should emit awaited results in order", func() {
			slow := streams.Spawn(ctx, func(context.Context) (int, error) {
				time.Sleep(20 * time.Millisecond)

				return 1, nil
			})
			p := streams.FromFutures([]streams.Awaitable[int]{slow, streams.Resolved(2), streams.Resolved(3)})

			values, err := streams.ToSlice(ctx, p)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(values).To(Equal([]int{1, 2, 3}))
		})

		It("should fail with failure of awaited item", func() {
			errFailed := errors.New("failed")
			p := streams.FromFutures([]streams.Awaitable[int]{streams.Resolved(1), streams.Rejected[int](errFailed), streams.Resolved(3)})

			values, err := streams.ToSlice(ctx, p)

			Expect(err).To(BeIdenticalTo(errFailed))
			Expect(values).To(Equal([]int{1}))
		})
	})

	Context("Map", func() {
		It("should transform every value in order", func() {
			p := streams.Map(
				streams.FromSlice([]int{1, 2, 3}),
				streams.LiftOk(func(_ context.Context, n int) string { return "#" + strconv.Itoa(n) }),
			)

			values, err := streams.ToSlice(ctx, p)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(values).To(Equal([]string{"#1", "#2", "#3"}))
		})

		It("should fail once with transform error and stay failed", func() {
			errBadValue := errors.New("bad value")
			var calls atomic.Int32
			p := streams.Map(
				streams.FromSlice([]int{1, 2, 3}),
				func(_ context.Context, n int) (int, error) {
					calls.Add(1)
					if n == 2 {
						return 0, errBadValue
					}

					return n, nil
				},
			)

			v, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))

			for i := 0; i < 3; i++ {
				_, ok, err = p.Continue(ctx)

				Expect(ok).To(BeFalse())
				Expect(err).To(BeIdenticalTo(errBadValue))
			}

			Expect(calls.Load()).To(BeEquivalentTo(2))
		})

		It("should turn panic into failure", func() {
			p := streams.Map(
				streams.FromSlice([]int{1}),
				func(context.Context, int) (int, error) { panic("broken handle") },
			)

			_, err := streams.ToSlice(ctx, p)

			Expect(err).To(BeAssignableToTypeOf(new(streams.PanicError)))
		})

		It("should pull upstream lazily", func() {
			var steps atomic.Int32
			upstream := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				for i := 0; ; i++ {
					steps.Add(1)

					if !yield(i) {
						return nil
					}
				}
			})
			p := streams.Map(upstream, streams.LiftNoContext(func(n int) (int, error) { return n * 10, nil }))

			Consistently(steps.Load, "20ms", "5ms").Should(BeZero())

			v, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(0))

			v, _, _ = p.Continue(ctx)
			Expect(v).To(Equal(10))

			Consistently(steps.Load, "20ms", "5ms").Should(BeEquivalentTo(2))

			p.Dispose()
		})

		It("should dispose upstream", func() {
			stopped := make(chan struct{})
			upstream := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				defer close(stopped)

				for i := 0; yield(i); i++ {
				}

				return nil
			})
			p := streams.Map(upstream, streams.LiftNoContext(func(n int) (int, error) { return n, nil }))

			_, _, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			p.Dispose()

			Eventually(stopped).Should(BeClosed())

			_, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should detect concurrent Continue", func() {
			upstream := newBlocking()
			p := streams.Map(upstream, streams.LiftNoContext(func(n int) (int, error) { return n, nil }))
			done := make(chan error, 1)

			go func() {
				_, _, err := p.Continue(ctx)
				done <- err
			}()

			Eventually(upstream.entered).Should(Receive())

			_, _, err := p.Continue(ctx)
			Expect(err).To(MatchError(streams.ErrConcurrentContinue))

			close(upstream.release)
			Eventually(done).Should(Receive(BeNil()))
		})

		It("should dispose upstream when handle fails", func() {
			errFailed := errors.New("failed")
			upstream := streams.NewSource[int]()

			go func() {
				for i := 0; ; i++ {
					if listening, _ := upstream.Yield(ctx, i); !listening {
						return
					}
				}
			}()

			p := streams.Map(upstream.Pipeline(), func(context.Context, int) (int, error) { return 0, errFailed })

			_, ok, err := p.Continue(ctx)

			Expect(ok).To(BeFalse())
			Expect(err).To(BeIdenticalTo(errFailed))
			Eventually(upstream.Disposed()).Should(BeClosed())
		})

		It("should not record upstream pulled elsewhere as failure", func() {
			upstream := streams.NewSource[int]()
			view := upstream.Pipeline()
			p := streams.Map(view, streams.LiftNoContext(func(n int) (int, error) { return n, nil }))
			pulledElsewhere := make(chan int, 1)

			go func() {
				v, _, _ := view.Continue(ctx)
				pulledElsewhere <- v
			}()

			requested, err := upstream.Demand(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(requested).To(BeTrue())

			_, _, err = p.Continue(ctx)
			Expect(err).To(MatchError(streams.ErrConcurrentContinue))

			listening, err := upstream.Yield(ctx, 7)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(listening).To(BeTrue())
			Eventually(pulledElsewhere).Should(Receive(Equal(7)))
			Expect(upstream.Disposed()).NotTo(BeClosed())

			Expect(upstream.Complete()).To(Succeed())

			_, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Context("Filter", func() {
		It("should keep matching values in order", func() {
			p := streams.Filter(
				streams.FromSlice([]int{1, 2, 3, 4, 5, 6}),
				streams.LiftPredicate(func(n int) bool { return n%2 == 0 }),
			)

			values, err := streams.ToSlice(ctx, p)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(values).To(Equal([]int{2, 4, 6}))
		})

		It("should fail with predicate error", func() {
			errFailed := errors.New("failed")
			p := streams.Filter(
				streams.FromSlice([]int{1, 2, 3}),
				func(_ context.Context, n int) (bool, error) {
					if n == 3 {
						return false, errFailed
					}

					return true, nil
				},
			)

			values, err := streams.ToSlice(ctx, p)

			Expect(err).To(BeIdenticalTo(errFailed))
			Expect(values).To(Equal([]int{1, 2}))
		})

		It("should dispose upstream when predicate fails", func() {
			errFailed := errors.New("failed")
			stopped := make(chan struct{})
			upstream := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				defer close(stopped)

				for i := 0; yield(i); i++ {
				}

				return nil
			})
			p := streams.Filter(upstream, func(_ context.Context, n int) (bool, error) {
				if n == 2 {
					return false, errFailed
				}

				return true, nil
			})

			for _, expected := range []int{0, 1} {
				v, ok, err := p.Continue(ctx)

				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(v).To(Equal(expected))
			}

			_, _, err := p.Continue(ctx)

			Expect(err).To(BeIdenticalTo(errFailed))
			Eventually(stopped).Should(BeClosed())
		})

		It("should turn predicate panic into failure", func() {
			p := streams.Filter(
				streams.FromSlice([]string{"a"}),
				func(context.Context, string) (bool, error) { panic("broken predicate") },
			)

			_, _, err := p.Continue(ctx)

			Expect(err).To(BeAssignableToTypeOf(new(streams.PanicError)))
			Expect(err).To(MatchError("recovered from panic: broken predicate"))
		})
	})

	Context("Concat", func() {
		It("should forward zero values", func() {
			first := streams.FromSlice([]any{0, false, "", 1})
			second := streams.FromSlice([]any{nil, 0.0})

			p, err := streams.Concat([]streams.Pipeline[any]{first, second})
			Expect(err).ShouldNot(HaveOccurred())

			values, err := streams.ToSlice(ctx, p)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(values).To(Equal([]any{0, false, "", 1, nil, 0.0}))
		})

		It("should not pull next pipeline before previous one completes", func() {
			var secondStarted atomic.Bool
			first := streams.FromSlice([]int{1, 2})
			second := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				secondStarted.Store(true)
				yield(3)

				return nil
			})

			p, err := streams.Concat([]streams.Pipeline[int]{first, second})
			Expect(err).ShouldNot(HaveOccurred())

			for _, expected := range []int{1, 2} {
				v, _, err := p.Continue(ctx)

				Expect(err).ShouldNot(HaveOccurred())
				Expect(v).To(Equal(expected))
				Expect(secondStarted.Load()).To(BeFalse())
			}

			v, ok, err := p.Continue(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(3))
			Expect(secondStarted.Load()).To(BeTrue())

			p.Dispose()
		})

		It("should stop at first failure", func() {
			errFailed := errors.New("failed")
			var thirdStarted atomic.Bool
			failing := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				return errFailed
			})
			third := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				thirdStarted.Store(true)

				return nil
			})

			p, err := streams.Concat([]streams.Pipeline[int]{streams.FromSlice([]int{1}), failing, third})
			Expect(err).ShouldNot(HaveOccurred())

			values, err := streams.ToSlice(ctx, p)

			Expect(err).To(BeIdenticalTo(errFailed))
			Expect(values).To(Equal([]int{1}))
			Consistently(thirdStarted.Load, "20ms", "5ms").Should(BeFalse())
		})

		It("should dispose later pipelines on failure", func() {
			errFailed := errors.New("failed")
			failing := streams.Generate(func(ctx context.Context, yield func(int) bool) error {
				return errFailed
			})
			third := streams.NewSource[int]()

			p, err := streams.Concat([]streams.Pipeline[int]{failing, third.Pipeline()})
			Expect(err).ShouldNot(HaveOccurred())

			_, ok, err := p.Continue(ctx)

			Expect(ok).To(BeFalse())
			Expect(err).To(BeIdenticalTo(errFailed))
			Expect(third.Disposed()).To(BeClosed())
		})

		It("should reject nil pipeline", func() {
			var typedNil *blocking

			_, err := streams.Concat([]streams.Pipeline[int]{streams.FromSlice([]int{1}), typedNil})

			Expect(err).To(BeAssignableToTypeOf(new(streams.InvalidPipelineError)))
			Expect(err.(*streams.InvalidPipelineError).Index).To(Equal(1))
			Expect(err).To(MatchError("element 1 is not a pipeline of int: got *streams_test.blocking"))
		})
	})
})
