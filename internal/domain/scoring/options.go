package scoring

import "github.com/shopspring/decimal"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithAccuracyWeight sets the multiplier applied to the win rate.
func WithAccuracyWeight(w float64) Option {
	return func(c *Calculator) {
		if w >= 0 {
			c.accuracyWeight = decimal.NewFromFloat(w)
		}
	}
}

// WithFollowersPerPoint sets how many followers earn one social point.
func WithFollowersPerPoint(n float64) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.followersPerPoint = decimal.NewFromFloat(n)
		}
	}
}

// WithSocialCap caps the social component.
func WithSocialCap(limit float64) Option {
	return func(c *Calculator) {
		if limit >= 0 {
			c.socialCap = decimal.NewFromFloat(limit)
		}
	}
}

// WithPrecision sets the number of decimal places kept on outputs.
func WithPrecision(places int32) Option {
	return func(c *Calculator) {
		if places >= 0 {
			c.precision = places
		}
	}
}
