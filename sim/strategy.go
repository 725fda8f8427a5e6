package sim

import (
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/censor"
)

// Fills are the trades and commissions a strategy has not seen yet.
type Fills struct {
	Trades      []accounting.Trade
	Commissions []broker.Commission
}

func (f Fills) Empty() bool {
	return len(f.Trades) == 0 && len(f.Commissions) == 0
}

// Strategy is called twice per business day: before the open, when only
// open-auction orders are accepted, and before the close, when only
// close-auction orders are. An error aborts the run.
type Strategy interface {
	PreOpen(date time.Time, b *broker.View, fills Fills, other *censor.Data) error
	PreClose(date time.Time, b *broker.View, fills Fills, other *censor.Data) error
}

// StrategyFunc adapts a single function to both phases. The function reads
// the phase from the view.
type StrategyFunc func(date time.Time, b *broker.View, fills Fills, other *censor.Data) error

func (f StrategyFunc) PreOpen(date time.Time, b *broker.View, fills Fills, other *censor.Data) error {
	return f(date, b, fills, other)
}

func (f StrategyFunc) PreClose(date time.Time, b *broker.View, fills Fills, other *censor.Data) error {
	return f(date, b, fills, other)
}

// fillBuffer hands out each fill exactly once.
type fillBuffer struct {
	b      *broker.Broker
	cursor broker.Cursor
}

func newFillBuffer(b *broker.Broker) *fillBuffer {
	return &fillBuffer{b: b, cursor: b.Cursor()}
}

func (f *fillBuffer) drain() Fills {
	trades, comms, next := f.b.FillsSince(f.cursor)
	f.cursor = next
	return Fills{Trades: trades, Commissions: comms}
}
