package broker

import (
	"fmt"
	"time"

	"github.com/rustyeddy/daybook/market"
)

// Valuation marks the account to the last known prices.
type Valuation struct {
	Cash        float64
	LongEquity  float64
	ShortEquity float64
	Total       float64
}

// HistoricalPrices returns symbol's bars as knowable at date.
func (b *Broker) HistoricalPrices(symbol string, date time.Time, afterOpen bool) (market.Window, error) {
	a, err := b.Asset(symbol)
	if err != nil {
		return market.Window{}, err
	}
	return a.Censored(date, afterOpen)
}

// LastKnownPrice is date's open once the open has happened, otherwise the
// last visible close.
func (b *Broker) LastKnownPrice(symbol string, date time.Time, afterOpen bool) (float64, error) {
	w, err := b.HistoricalPrices(symbol, date, afterOpen)
	if err != nil {
		return 0, err
	}
	p, ok := w.LastPrice()
	if !ok {
		return 0, fmt.Errorf("%s on %s: %w", symbol, date.Format(time.DateOnly), ErrNoPrice)
	}
	return p, nil
}

// MarkToMarket values every open lot at its symbol's last known price.
func (b *Broker) MarkToMarket(date time.Time, afterOpen bool) (Valuation, error) {
	v := Valuation{Cash: b.cash}
	for _, symbol := range b.openSymbols() {
		p, err := b.LastKnownPrice(symbol, date, afterOpen)
		if err != nil {
			return Valuation{}, err
		}
		for _, lot := range b.ledgers[symbol].Lots() {
			if lot.Size > 0 {
				v.LongEquity += lot.Size * p
			} else {
				v.ShortEquity += lot.Size * p
			}
		}
	}
	v.Total = v.Cash + v.LongEquity + v.ShortEquity
	return v, nil
}

// closingValuation marks open lots at the latest close on or before date.
// Symbols without any bar yet are valued at their lot prices.
func (b *Broker) closingValuation(date time.Time) Valuation {
	v := Valuation{Cash: b.cash}
	for _, symbol := range b.openSymbols() {
		bar, ok := b.assets[symbol].Series().OnOrBefore(date)
		for _, lot := range b.ledgers[symbol].Lots() {
			p := lot.Price
			if ok {
				p = bar.Close
			}
			if lot.Size > 0 {
				v.LongEquity += lot.Size * p
			} else {
				v.ShortEquity += lot.Size * p
			}
		}
	}
	v.Total = v.Cash + v.LongEquity + v.ShortEquity
	return v
}
