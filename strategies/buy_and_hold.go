package strategies

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/censor"
	"github.com/rustyeddy/daybook/sim"
)

// BuyAndHold buys Size shares at the first open it can and holds them. An
// unfilled order is resubmitted every morning until it fills.
type BuyAndHold struct {
	Symbol string
	Size   float64
	Band   float64

	filled bool
}

func NewBuyAndHold(cfg Config) (*BuyAndHold, error) {
	if cfg.Symbol == "" {
		return nil, errors.New("buy-and-hold: symbol is required")
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("buy-and-hold: size must be positive, got %g", cfg.Size)
	}
	return &BuyAndHold{Symbol: cfg.Symbol, Size: cfg.Size, Band: cfg.Band}, nil
}

func (s *BuyAndHold) Filled() bool { return s.filled }

func (s *BuyAndHold) PreOpen(date time.Time, b *broker.View, fills sim.Fills, other *censor.Data) error {
	s.observe(fills)
	if s.filled {
		return nil
	}
	price, err := b.LastKnownPrice(s.Symbol)
	if errors.Is(err, broker.ErrNoPrice) || errors.Is(err, censor.ErrOutOfRange) {
		// Nothing to anchor a limit on yet.
		return nil
	}
	if err != nil {
		return err
	}
	meta, err := accounting.NewMeta("strategy", "buy-and-hold")
	if err != nil {
		return err
	}
	return b.LimitOnOpen(s.Symbol, buyLimit(price, s.Band), s.Size, true, meta)
}

func (s *BuyAndHold) PreClose(date time.Time, b *broker.View, fills sim.Fills, other *censor.Data) error {
	s.observe(fills)
	return nil
}

func (s *BuyAndHold) observe(fills sim.Fills) {
	for _, t := range fills.Trades {
		if t.Symbol == s.Symbol && t.IsBuy() {
			s.filled = true
		}
	}
}
