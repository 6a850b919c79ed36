package streams

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Option configures producers created by this package.
type Option func(*options)

type options struct {
	ctx    context.Context
	delay  time.Duration
	logger zerolog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		ctx:    context.Background(),
		logger: zerolog.Nop(),
	}

	for _, option := range opts {
		option(&o)
	}

	return o
}

// WithContext sets parent context for goroutines producing values.
// Cancelling it stops producers the same way Dispose does.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithDelay makes FromSeq, FromSlice and FromFutures sleep between emissions.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger sets logger used to report lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
