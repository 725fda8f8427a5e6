package strategies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/censor"
	"github.com/rustyeddy/daybook/indicators"
	"github.com/rustyeddy/daybook/sim"
)

// SMACross trades one symbol long-only on a fast/slow moving average
// crossover of daily closes. Signals are evaluated before the close, once
// the day's open is known, and traded in the closing auction:
//   - bull cross: buy Size shares when flat
//   - bear cross: sell the whole position
//
// The averages are simple unless Average is "ema". With MinADX set, entries
// also need the trend strength to reach it. With ATRPeriod set, Band is
// counted in average true ranges and no order goes out until the ATR has
// warmed up.
type SMACross struct {
	Symbol    string
	Size      float64
	Band      float64
	ATRPeriod int
	MinADX    float64

	fast indicators.Indicator
	slow indicators.Indicator
	adx  *indicators.ADX
	atr  *indicators.ATR
	seen int

	lastDiff     float64
	haveLastDiff bool
}

func NewSMACross(cfg Config) (*SMACross, error) {
	if cfg.Symbol == "" {
		return nil, errors.New("sma-cross: symbol is required")
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("sma-cross: size must be positive, got %g", cfg.Size)
	}
	if cfg.Fast <= 0 || cfg.Slow <= 0 || cfg.Fast >= cfg.Slow {
		return nil, fmt.Errorf("sma-cross: need 0 < fast < slow, got fast=%d slow=%d", cfg.Fast, cfg.Slow)
	}
	if cfg.ATR < 0 {
		return nil, fmt.Errorf("sma-cross: atr period must not be negative, got %d", cfg.ATR)
	}

	s := &SMACross{
		Symbol:    cfg.Symbol,
		Size:      cfg.Size,
		Band:      cfg.Band,
		ATRPeriod: cfg.ATR,
		MinADX:    cfg.MinADX,
		adx:       indicators.NewADX(14),
	}
	switch strings.ToLower(cfg.Average) {
	case "", "sma":
		s.fast, s.slow = indicators.NewMA(cfg.Fast), indicators.NewMA(cfg.Slow)
	case "ema":
		s.fast, s.slow = indicators.NewEMA(cfg.Fast), indicators.NewEMA(cfg.Slow)
	default:
		return nil, fmt.Errorf("sma-cross: unknown average %q (supported: sma, ema)", cfg.Average)
	}
	if cfg.ATR > 0 {
		s.atr = indicators.NewATR(cfg.ATR)
	}
	return s, nil
}

func (s *SMACross) PreOpen(date time.Time, b *broker.View, fills sim.Fills, other *censor.Data) error {
	return nil
}

func (s *SMACross) PreClose(date time.Time, b *broker.View, fills sim.Fills, other *censor.Data) error {
	w, err := b.HistoricalPrices(s.Symbol)
	if err != nil {
		return err
	}
	// The window only ever grows; feed the bars not seen yet.
	for _, ind := range s.feeds() {
		indicators.Feed(ind, w.Bars[s.seen:])
	}
	s.seen = len(w.Bars)

	if !s.fast.Ready() || !s.slow.Ready() || !w.HasOpen {
		return nil
	}

	diff := s.fast.Value() - s.slow.Value()
	if !s.haveLastDiff {
		s.lastDiff, s.haveLastDiff = diff, true
		return nil
	}
	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	band, ok := s.band(w.Open)
	if !ok {
		return nil
	}

	held := b.Quantity(s.Symbol)
	switch {
	case bullCross && held == 0:
		if s.MinADX > 0 && (!s.adx.Ready() || s.adx.Value() < s.MinADX) {
			return nil
		}
		return b.LimitOnClose(s.Symbol, buyLimit(w.Open, band), s.Size, true, s.meta("bull-cross"))
	case bearCross && held > 0:
		return b.LimitOnClose(s.Symbol, sellLimit(w.Open, band), held, false, s.meta("bear-cross"))
	}
	return nil
}

func (s *SMACross) feeds() []indicators.Indicator {
	out := []indicators.Indicator{s.fast, s.slow, s.adx}
	if s.atr != nil {
		out = append(out, s.atr)
	}
	return out
}

// band converts Band into a fraction of price.
func (s *SMACross) band(price float64) (float64, bool) {
	if s.atr == nil {
		return s.Band, true
	}
	if !s.atr.Ready() || price <= 0 {
		return 0, false
	}
	return s.Band * s.atr.Value() / price, true
}

func (s *SMACross) meta(signal string) accounting.Meta {
	return accounting.Meta{
		accounting.StringField("strategy", "sma-cross"),
		accounting.StringField("signal", signal),
	}
}
