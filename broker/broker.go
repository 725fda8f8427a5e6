// Package broker is the system of record for a simulated account: cash,
// per-symbol FIFO ledgers, commissions, dividends and splits. Orders are
// checked against the account's position and margin limits before they are
// shown to the auction matcher.
package broker

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/market"
	"go.uber.org/zap"
)

var (
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrDuplicateAsset    = errors.New("asset already registered")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidOrderPhase = errors.New("order not allowed in this phase")
	ErrNoPrice           = errors.New("no price known")
)

// CashPoint is the account at the end of a day, positions marked at the
// day's close.
type CashPoint struct {
	Date        time.Time
	Cash        float64
	LongEquity  float64
	ShortEquity float64
}

func (c CashPoint) Row() accounting.Row {
	return accounting.Row{
		accounting.TimeField("date", c.Date),
		accounting.NumberField("cash", c.Cash),
		accounting.NumberField("long_equities", c.LongEquity),
		accounting.NumberField("short_equities", c.ShortEquity),
	}
}

type Broker struct {
	initialCash float64
	cash        float64
	margin      float64
	allowShort  bool
	applySplits bool
	commission  CommissionFunc
	log         *zap.Logger

	assets map[string]*market.Asset
	// ledgers holds only symbols with a nonzero position.
	ledgers map[string]*accounting.Ledger
	// archive holds gains of ledgers that returned to flat.
	archive []accounting.Gain

	trades      []accounting.Trade
	commissions []Commission
	dividends   []Dividend
	splits      []Split
	cashSeries  []CashPoint
}

type Option func(*Broker)

// WithMargin lets cash go as low as -limit.
func WithMargin(limit float64) Option {
	return func(b *Broker) { b.margin = limit }
}

func WithShortSelling(allow bool) Option {
	return func(b *Broker) { b.allowShort = allow }
}

func WithCommission(fn CommissionFunc) Option {
	return func(b *Broker) {
		if fn != nil {
			b.commission = fn
		}
	}
}

func WithSplits(apply bool) Option {
	return func(b *Broker) { b.applySplits = apply }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.log = l
		}
	}
}

func WithAssets(assets ...*market.Asset) Option {
	return func(b *Broker) {
		for _, a := range assets {
			b.assets[a.Symbol()] = a
		}
	}
}

func New(initialCash float64, opts ...Option) *Broker {
	b := &Broker{
		initialCash: initialCash,
		cash:        initialCash,
		applySplits: true,
		commission:  NoCommission,
		log:         zap.NewNop(),
		assets:      make(map[string]*market.Asset),
		ledgers:     make(map[string]*accounting.Ledger),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddAsset registers a tradeable symbol.
func (b *Broker) AddAsset(a *market.Asset) error {
	if _, ok := b.assets[a.Symbol()]; ok {
		return fmt.Errorf("add asset %s: %w", a.Symbol(), ErrDuplicateAsset)
	}
	b.assets[a.Symbol()] = a
	return nil
}

func (b *Broker) Asset(symbol string) (*market.Asset, error) {
	a, ok := b.assets[symbol]
	if !ok {
		return nil, fmt.Errorf("%q: %w", symbol, ErrUnknownSymbol)
	}
	return a, nil
}

// Symbols lists registered symbols in sorted order.
func (b *Broker) Symbols() []string {
	out := make([]string, 0, len(b.assets))
	for s := range b.assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LimitOnOpen submits a limit order to date's opening auction. It returns
// the fill, or false when a constraint rejects the order or the auction
// price does not clear the limit. Errors are reserved for malformed orders.
func (b *Broker) LimitOnOpen(symbol string, date time.Time, price, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool, error) {
	return b.limitOnAuction(market.OpenAuction, symbol, date, price, size, isBuy, meta)
}

// LimitOnClose is LimitOnOpen for the closing auction.
func (b *Broker) LimitOnClose(symbol string, date time.Time, price, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool, error) {
	return b.limitOnAuction(market.CloseAuction, symbol, date, price, size, isBuy, meta)
}

func (b *Broker) limitOnAuction(kind market.Auction, symbol string, date time.Time, price, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool, error) {
	asset, err := b.Asset(symbol)
	if err != nil {
		return accounting.Trade{}, false, fmt.Errorf("limit on %s: %w", kind, err)
	}
	if err := validateOrder(price, size, meta); err != nil {
		return accounting.Trade{}, false, fmt.Errorf("limit on %s %s: %w", kind, symbol, err)
	}

	signed := size
	if !isBuy {
		signed = -size
	}

	if !b.allowPosition(b.Quantity(symbol) + signed) {
		b.reject(kind, symbol, date, "short selling not allowed")
		return accounting.Trade{}, false, nil
	}
	if !b.allowMargin(b.cash - price*signed) {
		b.reject(kind, symbol, date, "margin exceeded")
		return accounting.Trade{}, false, nil
	}

	trade, ok := asset.Match(kind, date, price, size, isBuy, meta)
	if !ok {
		return accounting.Trade{}, false, nil
	}
	fee := b.commission(trade.Price, size, isBuy)
	trade = trade.WithCommission(fee)

	l, created := b.ledger(symbol)
	if err := l.Record(trade); err != nil {
		if created {
			delete(b.ledgers, symbol)
		}
		return accounting.Trade{}, false, fmt.Errorf("limit on %s %s: %w", kind, symbol, err)
	}

	b.cash -= trade.Notional()
	if fee != 0 {
		b.cash -= fee
		b.commissions = append(b.commissions, Commission{Trade: trade, Amount: fee})
	}
	b.trades = append(b.trades, trade)

	if l.Quantity() == 0 {
		b.teardown(symbol)
	}
	return trade, true, nil
}

func validateOrder(price, size float64, meta accounting.Meta) error {
	switch {
	case size == 0:
		return accounting.ErrZeroSizeTrade
	case size < 0 || math.IsNaN(size) || math.IsInf(size, 0):
		return fmt.Errorf("size %g: %w", size, ErrInvalidOrder)
	case price < 0 || math.IsNaN(price) || math.IsInf(price, 0):
		return fmt.Errorf("limit price %g: %w", price, ErrInvalidOrder)
	}
	return meta.Validate()
}

func (b *Broker) allowPosition(final float64) bool {
	return final >= 0 || b.allowShort
}

// allowMargin is a pre-commission estimate, so a fill may still leave cash
// slightly below the floor once its commission is charged.
func (b *Broker) allowMargin(finalCash float64) bool {
	return finalCash >= -b.margin
}

func (b *Broker) reject(kind market.Auction, symbol string, date time.Time, reason string) {
	b.log.Debug("order rejected",
		zap.String("auction", kind.String()),
		zap.String("symbol", symbol),
		zap.Time("date", date),
		zap.String("reason", reason))
}

func (b *Broker) ledger(symbol string) (*accounting.Ledger, bool) {
	if l, ok := b.ledgers[symbol]; ok {
		return l, false
	}
	l := accounting.NewLedger(symbol)
	b.ledgers[symbol] = l
	return l, true
}

// teardown archives a flat ledger's gains and forgets it.
func (b *Broker) teardown(symbol string) {
	l := b.ledgers[symbol]
	b.archive = append(b.archive, l.Gains()...)
	delete(b.ledgers, symbol)
	b.log.Debug("ledger closed", zap.String("symbol", symbol), zap.Int("gains", len(l.Gains())))
}

func (b *Broker) openSymbols() []string {
	out := make([]string, 0, len(b.ledgers))
	for s := range b.ledgers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DayFinished appends date's closing cash and equity to the cash series.
func (b *Broker) DayFinished(date time.Time) {
	v := b.closingValuation(date)
	b.cashSeries = append(b.cashSeries, CashPoint{
		Date:        market.Day(date),
		Cash:        v.Cash,
		LongEquity:  v.LongEquity,
		ShortEquity: v.ShortEquity,
	})
}

func (b *Broker) Cash() float64 { return b.cash }

func (b *Broker) InitialCash() float64 { return b.initialCash }

// Quantity is the net position in symbol; zero when flat.
func (b *Broker) Quantity(symbol string) float64 {
	if l, ok := b.ledgers[symbol]; ok {
		return l.Quantity()
	}
	return 0
}

// HasLedger reports whether symbol has open-lot state.
func (b *Broker) HasLedger(symbol string) bool {
	_, ok := b.ledgers[symbol]
	return ok
}

// Positions lists every open lot, by symbol then age.
func (b *Broker) Positions() []accounting.Lot {
	var out []accounting.Lot
	for _, s := range b.openSymbols() {
		out = append(out, b.ledgers[s].Lots()...)
	}
	return out
}

// CapitalGains lists archived gains in archive order, then gains of
// still-open ledgers by symbol.
func (b *Broker) CapitalGains() []accounting.Gain {
	out := make([]accounting.Gain, len(b.archive))
	copy(out, b.archive)
	for _, s := range b.openSymbols() {
		out = append(out, b.ledgers[s].Gains()...)
	}
	return out
}

// Trades lists every fill in execution order.
func (b *Broker) Trades() []accounting.Trade {
	out := make([]accounting.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

func (b *Broker) Commissions() []Commission {
	out := make([]Commission, len(b.commissions))
	copy(out, b.commissions)
	return out
}

func (b *Broker) Dividends() []Dividend {
	out := make([]Dividend, len(b.dividends))
	copy(out, b.dividends)
	return out
}

func (b *Broker) Splits() []Split {
	out := make([]Split, len(b.splits))
	copy(out, b.splits)
	return out
}

func (b *Broker) CashSeries() []CashPoint {
	out := make([]CashPoint, len(b.cashSeries))
	copy(out, b.cashSeries)
	return out
}

// Cursor marks a point in the fill history.
type Cursor struct {
	trades      int
	commissions int
}

func (b *Broker) Cursor() Cursor {
	return Cursor{trades: len(b.trades), commissions: len(b.commissions)}
}

// FillsSince returns the trades and commissions recorded after c, and a
// cursor at the end of the history.
func (b *Broker) FillsSince(c Cursor) ([]accounting.Trade, []Commission, Cursor) {
	trades := make([]accounting.Trade, len(b.trades)-c.trades)
	copy(trades, b.trades[c.trades:])
	comms := make([]Commission, len(b.commissions)-c.commissions)
	copy(comms, b.commissions[c.commissions:])
	return trades, comms, b.Cursor()
}
