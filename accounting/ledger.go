// Package accounting keeps tax-lot cost basis for a single symbol and
// realizes gains first-in, first-out.
package accounting

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrZeroSizeTrade  = errors.New("trade size is zero")
	ErrSymbolMismatch = errors.New("trade symbol does not match ledger")
)

// Ledger holds the open lots and realized gains of one symbol. The sum of
// lot sizes always equals Quantity.
type Ledger struct {
	symbol   string
	lots     []Lot
	quantity float64
	gains    []Gain
}

func NewLedger(symbol string) *Ledger {
	return &Ledger{symbol: symbol}
}

func (l *Ledger) Symbol() string { return l.symbol }

// Quantity is the running sum of every recorded trade size.
func (l *Ledger) Quantity() float64 { return l.quantity }

// Lots returns the open lots, oldest first.
func (l *Ledger) Lots() []Lot {
	out := make([]Lot, len(l.lots))
	copy(out, l.lots)
	return out
}

// Gains returns realized gains in the order they were realized.
func (l *Ledger) Gains() []Gain {
	out := make([]Gain, len(l.gains))
	copy(out, l.gains)
	return out
}

func (l *Ledger) String() string {
	return fmt.Sprintf("Ledger(%s, quantity=%g)", l.symbol, l.quantity)
}

// Record applies a trade to the lot queue. A trade in the direction of the
// oldest lot opens a new lot; an opposing trade closes lots oldest first
// and opens a new lot with whatever remains.
func (l *Ledger) Record(t Trade) error {
	if t.Symbol != l.symbol {
		return fmt.Errorf("record %s trade: %w (%s)", t.Symbol, ErrSymbolMismatch, l.symbol)
	}
	if t.Size == 0 {
		return fmt.Errorf("record %s trade: %w", t.Symbol, ErrZeroSizeTrade)
	}
	if err := t.Meta.Validate(); err != nil {
		return fmt.Errorf("record %s trade: %w", t.Symbol, err)
	}

	cps := t.CommissionPerShare()
	tol := sizeTolerance(t.Size)
	l.quantity += t.Size

	remaining := t.Size
	for math.Abs(remaining) > tol && len(l.lots) > 0 {
		first := l.lots[0]
		if sameSign(first.Size, remaining) {
			break
		}

		if math.Abs(first.Size)-math.Abs(remaining) > tol {
			l.realize(first, math.Abs(remaining), t, cps)
			l.lots[0].Size += remaining
			remaining = 0
			break
		}

		l.realize(first, math.Abs(first.Size), t, cps)
		l.lots = l.lots[1:]
		remaining += first.Size
	}

	if math.Abs(remaining) > tol {
		l.lots = append(l.lots, Lot{
			Price:              t.Price,
			Size:               remaining,
			Symbol:             l.symbol,
			Time:               t.Time,
			CommissionPerShare: cps,
			Meta:               t.Meta.Clone(),
		})
	}
	// Rounding residue must not keep a flat position open.
	if len(l.lots) == 0 {
		l.quantity = 0
	}
	return nil
}

// sizeTolerance is the largest size treated as zero when matching a trade
// of size s against open lots.
func sizeTolerance(s float64) float64 {
	return 1e-9 * math.Max(math.Abs(s), 1)
}

func (l *Ledger) realize(lot Lot, size float64, t Trade, cps float64) {
	l.gains = append(l.gains, Gain{
		OpenPrice:               lot.Price,
		ClosePrice:              t.Price,
		Size:                    size,
		Short:                   lot.Size < 0,
		Symbol:                  l.symbol,
		OpenTime:                lot.Time,
		CloseTime:               t.Time,
		OpenCommissionPerShare:  lot.CommissionPerShare,
		CloseCommissionPerShare: cps,
		OpenMeta:                lot.Meta,
		CloseMeta:               t.Meta.Clone(),
	})
}

// Split rescales every open lot by factor: sizes grow, per-share amounts
// shrink, and the position's total cost is unchanged. Quantity is
// recomputed from the rescaled lots.
func (l *Ledger) Split(factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("split %s by %g: invalid factor", l.symbol, factor)
	}
	for i := range l.lots {
		l.lots[i].Size *= factor
		l.lots[i].Price /= factor
		l.lots[i].CommissionPerShare /= factor
	}
	l.quantity = 0
	for _, lot := range l.lots {
		l.quantity += lot.Size
	}
	return nil
}

func sameSign(a, b float64) bool {
	return (a > 0) == (b > 0)
}
