package broker

import (
	"fmt"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/market"
)

// Phase is the point of the trading day a View is positioned at.
type Phase int

const (
	// PreOpen accepts open-auction orders only.
	PreOpen Phase = iota
	// PreClose accepts close-auction orders only.
	PreClose
)

func (p Phase) String() string {
	if p == PreClose {
		return "pre-close"
	}
	return "pre-open"
}

func (p Phase) afterOpen() bool { return p == PreClose }

// View is the part of a Broker a strategy may use. Orders go to the
// auction matching the current phase; fills are reported later through
// the driver, not returned here.
type View struct {
	b         *Broker
	date      time.Time
	phase     Phase
	positions []accounting.Lot
	violation error
}

func NewView(b *Broker) *View {
	return &View{b: b}
}

// SetDate moves the view, snapshots the broker's open positions and
// clears any recorded phase violation.
func (v *View) SetDate(date time.Time, phase Phase) {
	v.date = market.Day(date)
	v.phase = phase
	v.positions = v.b.Positions()
	v.violation = nil
}

// Err returns the first order placed in the wrong phase since SetDate,
// whether or not the caller kept the error it was given.
func (v *View) Err() error { return v.violation }

func (v *View) violate(err error) error {
	if v.violation == nil {
		v.violation = err
	}
	return err
}

func (v *View) Date() time.Time { return v.date }

func (v *View) Phase() Phase { return v.phase }

func (v *View) LimitOnOpen(symbol string, price, size float64, isBuy bool, meta accounting.Meta) error {
	if v.phase != PreOpen {
		return v.violate(fmt.Errorf("limit on open for %s: the open has already passed: %w", symbol, ErrInvalidOrderPhase))
	}
	_, _, err := v.b.LimitOnOpen(symbol, v.date, price, size, isBuy, meta)
	return err
}

func (v *View) LimitOnClose(symbol string, price, size float64, isBuy bool, meta accounting.Meta) error {
	if v.phase != PreClose {
		return v.violate(fmt.Errorf("limit on close for %s: the open has not happened yet: %w", symbol, ErrInvalidOrderPhase))
	}
	_, _, err := v.b.LimitOnClose(symbol, v.date, price, size, isBuy, meta)
	return err
}

func (v *View) Cash() float64 { return v.b.Cash() }

// Positions is the snapshot taken when the phase began.
func (v *View) Positions() []accounting.Lot {
	out := make([]accounting.Lot, len(v.positions))
	copy(out, v.positions)
	return out
}

// Quantity sums symbol's lots in the positions snapshot.
func (v *View) Quantity(symbol string) float64 {
	q := 0.0
	for _, lot := range v.positions {
		if lot.Symbol == symbol {
			q += lot.Size
		}
	}
	return q
}

func (v *View) Symbols() []string { return v.b.Symbols() }

func (v *View) Valuation() (Valuation, error) {
	return v.b.MarkToMarket(v.date, v.phase.afterOpen())
}

func (v *View) HistoricalPrices(symbol string) (market.Window, error) {
	return v.b.HistoricalPrices(symbol, v.date, v.phase.afterOpen())
}

func (v *View) LastKnownPrice(symbol string) (float64, error) {
	return v.b.LastKnownPrice(symbol, v.date, v.phase.afterOpen())
}
