// Package indicators provides technical analysis indicators over daily bars.
package indicators

import "github.com/rustyeddy/daybook/market"

// Indicator computes a single streaming value from bars.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	Reset()

	// Update consumes the next complete bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	Value() float64
}

// Feed runs bars through ind and returns its final value.
func Feed(ind Indicator, bars []market.Bar) (float64, bool) {
	for _, b := range bars {
		ind.Update(b)
	}
	return ind.Value(), ind.Ready()
}
