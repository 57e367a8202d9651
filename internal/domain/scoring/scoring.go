// Package scoring computes capper win rate and clout score.
//
// The clout score blends accuracy with a capped social component:
//
//	winRate = correct / total (0 when total is 0)
//	social  = min(followers / followersPerPoint, socialCap)
//	clout   = winRate * accuracyWeight + social
//
// Arithmetic is carried out in decimal and both outputs are rounded half away
// from zero to a fixed number of places, so stored and displayed values agree.
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default weights of the clout formula.
const (
	DefaultAccuracyWeight    = 70
	DefaultFollowersPerPoint = 10
	DefaultSocialCap         = 30
	DefaultPrecision         = 2
)

// Stats is the derived pair stored on a capper.
type Stats struct {
	WinRate    float64
	CloutScore float64
}

// Calculator computes Stats. The zero value is not usable; use NewCalculator.
type Calculator struct {
	accuracyWeight    decimal.Decimal
	followersPerPoint decimal.Decimal
	socialCap         decimal.Decimal
	precision         int32
}

// NewCalculator creates a calculator with the default weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		accuracyWeight:    decimal.NewFromInt(DefaultAccuracyWeight),
		followersPerPoint: decimal.NewFromInt(DefaultFollowersPerPoint),
		socialCap:         decimal.NewFromInt(DefaultSocialCap),
		precision:         DefaultPrecision,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCalculator = NewCalculator() //nolint:gochecknoglobals // immutable default weights

// ComputeStats computes Stats with the default weights.
func ComputeStats(correctPicks, totalPicks, followerCount int) (Stats, error) {
	return defaultCalculator.ComputeStats(correctPicks, totalPicks, followerCount)
}

// ComputeStats derives win rate and clout score. It fails with
// ErrInvalidCounts for negative counts or correct > total.
func (c *Calculator) ComputeStats(correctPicks, totalPicks, followerCount int) (Stats, error) {
	if err := validate(correctPicks, totalPicks, followerCount); err != nil {
		return Stats{}, err
	}

	winRate := decimal.Zero
	if totalPicks > 0 {
		winRate = decimal.NewFromInt(int64(correctPicks)).Div(decimal.NewFromInt(int64(totalPicks)))
	}
	clout := winRate.Mul(c.accuracyWeight).Add(c.social(followerCount))

	return Stats{
		WinRate:    winRate.Round(c.precision).InexactFloat64(),
		CloutScore: clout.Round(c.precision).InexactFloat64(),
	}, nil
}

// Social returns the rounded social component for followerCount.
func (c *Calculator) Social(followerCount int) float64 {
	if followerCount < 0 {
		followerCount = 0
	}
	return c.social(followerCount).Round(c.precision).InexactFloat64()
}

// Round applies the calculator's precision to v.
func (c *Calculator) Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(c.precision).InexactFloat64()
}

func (c *Calculator) social(followerCount int) decimal.Decimal {
	s := decimal.NewFromInt(int64(followerCount)).Div(c.followersPerPoint)
	return decimal.Min(s, c.socialCap)
}

func validate(correct, total, followers int) error {
	switch {
	case correct < 0 || total < 0 || followers < 0:
		return fmt.Errorf("%w: negative count (correct=%d total=%d followers=%d)", ErrInvalidCounts, correct, total, followers)
	case correct > total:
		return fmt.Errorf("%w: correct=%d exceeds total=%d", ErrInvalidCounts, correct, total)
	}
	return nil
}
