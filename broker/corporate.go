package broker

import (
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"go.uber.org/zap"
)

// Dividend is the cash paid on one open lot on an ex-date.
type Dividend struct {
	Symbol     string
	PerShare   float64
	Shares     float64
	Amount     float64
	ExDate     time.Time
	AcquiredAt time.Time
	Meta       accounting.Meta
}

func (d Dividend) Row() accounting.Row {
	r := accounting.Row{
		accounting.TimeField("stock_acquisition_date", d.AcquiredAt),
		accounting.NumberField("shares", d.Shares),
		accounting.StringField("symbol", d.Symbol),
	}
	r = accounting.AppendMeta(r, "", d.Meta)
	return append(r,
		accounting.NumberField("div_per_share", d.PerShare),
		accounting.NumberField("amount", d.Amount),
		accounting.TimeField("ex_date", d.ExDate),
	)
}

// Split records a share split applied to an open position.
type Split struct {
	Symbol string
	Date   time.Time
	Factor float64
	Before float64
	After  float64
}

func (s Split) Row() accounting.Row {
	return accounting.Row{
		accounting.StringField("symbol", s.Symbol),
		accounting.TimeField("date", s.Date),
		accounting.NumberField("factor", s.Factor),
		accounting.NumberField("shares_before", s.Before),
		accounting.NumberField("shares_after", s.After),
	}
}

// ExecuteDividends pays date's cash dividend on every open lot. date is
// treated as the ex-date. Symbols are visited in sorted order and lots
// oldest first, so the cash total is reproducible.
func (b *Broker) ExecuteDividends(date time.Time) {
	for _, symbol := range b.openSymbols() {
		bar, ok := b.assets[symbol].Bar(date)
		if !ok || bar.DivCash == 0 {
			continue
		}
		for _, lot := range b.ledgers[symbol].Lots() {
			d := Dividend{
				Symbol:     symbol,
				PerShare:   bar.DivCash,
				Shares:     lot.Size,
				Amount:     bar.DivCash * lot.Size,
				ExDate:     bar.Date,
				AcquiredAt: lot.Time,
				Meta:       lot.Meta.Clone(),
			}
			b.cash += d.Amount
			b.dividends = append(b.dividends, d)
		}
		b.log.Debug("dividend",
			zap.String("symbol", symbol),
			zap.Time("ex_date", bar.Date),
			zap.Float64("per_share", bar.DivCash))
	}
}

// ExecuteSplits rescales open positions whose bar for date carries a split
// factor. Cash is unchanged. It does nothing when splits are disabled.
func (b *Broker) ExecuteSplits(date time.Time) error {
	if !b.applySplits {
		return nil
	}
	for _, symbol := range b.openSymbols() {
		bar, ok := b.assets[symbol].Bar(date)
		if !ok || bar.SplitFactor == 0 || bar.SplitFactor == 1 {
			continue
		}
		l := b.ledgers[symbol]
		before := l.Quantity()
		if err := l.Split(bar.SplitFactor); err != nil {
			return err
		}
		b.splits = append(b.splits, Split{
			Symbol: symbol,
			Date:   bar.Date,
			Factor: bar.SplitFactor,
			Before: before,
			After:  l.Quantity(),
		})
		b.log.Debug("split",
			zap.String("symbol", symbol),
			zap.Float64("factor", bar.SplitFactor))
	}
	return nil
}
