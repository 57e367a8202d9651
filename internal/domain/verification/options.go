package verification

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/domain/scoring"
	"github.com/okian/clout/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCalculator replaces the default score calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(e *Engine) {
		if c != nil {
			e.calc = c
		}
	}
}

// WithClock sets the clock that stamps verifiedAt.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithPublisher sets where verified picks are announced.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.pub = p
		}
	}
}

// WithEventTimeout bounds the work done for a single event in a batch.
func WithEventTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.eventTimeout = d
		}
	}
}
