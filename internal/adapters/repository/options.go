package repository

import "github.com/jonboulle/clockwork"

// Option applies a configuration option to the Memory store.
type Option func(*Memory)

// WithClock sets the clock used for UpdatedAt stamps.
func WithClock(c clockwork.Clock) Option {
	return func(m *Memory) {
		if c != nil {
			m.clock = c
		}
	}
}
