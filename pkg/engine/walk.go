package engine

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// walkSpanPct is the half-width of the uniform percent draw. ±500% per tick
// is absurd on purpose: the game is meant to be chaotic, not realistic.
const walkSpanPct = 500.0

// pricePrecision matches the feed's six-decimal price formatting.
const pricePrecision = 6

// Walk generates the next price for an asset once per tick.
type Walk struct {
	rng   *rand.Rand
	floor decimal.Decimal
}

// NewWalk builds a generator with the given price floor. A nil rng gets a
// time-seeded source; tests pass a seeded one.
func NewWalk(rng *rand.Rand, floor decimal.Decimal) *Walk {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Walk{rng: rng, floor: floor}
}

// Next draws a percent delta uniformly from [-500, +500] and applies it.
// The returned percent is the drawn value even when the floor clamp made the
// realized move smaller.
func (w *Walk) Next(price decimal.Decimal) (decimal.Decimal, float64) {
	pct := w.rng.Float64()*2*walkSpanPct - walkSpanPct
	return w.Apply(price, pct), pct
}

// Apply computes price + price*pct/100, rounded to the feed precision, and
// clamps results at or below zero to the floor. A zero price would make the
// asset untradeable and poison the next percent computation.
func (w *Walk) Apply(price decimal.Decimal, pct float64) decimal.Decimal {
	delta := price.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	next := price.Add(delta).Round(pricePrecision)
	if next.Sign() <= 0 {
		return w.floor
	}
	return next
}
