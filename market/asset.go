package market

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/rustyeddy/daybook/accounting"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Session is an exchange's auction schedule.
type Session struct {
	Location *time.Location
	Open     Clock
	Close    Clock
}

// DefaultSession is the US equity schedule: 09:30 open and 16:00 close,
// New York time.
func DefaultSession() Session {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata is embedded, so this only happens with a corrupt build.
		panic(err)
	}
	return Session{Location: loc, Open: Clock{9, 30}, Close: Clock{16, 0}}
}

// At places the calendar day of date at clock c in the session's location.
func (s Session) At(date time.Time, c Clock) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, s.Location)
}

// Auction selects which of the day's auctions an order joins.
type Auction int

const (
	OpenAuction Auction = iota
	CloseAuction
)

func (a Auction) String() string {
	if a == CloseAuction {
		return "close"
	}
	return "open"
}

// Asset is the market data for one tradeable symbol. It answers whether a
// limit order would have filled in a historical auction; it never records
// anything.
type Asset struct {
	symbol  string
	series  *Series
	session Session
}

type AssetOption func(*Asset)

func WithSession(s Session) AssetOption {
	return func(a *Asset) { a.session = s }
}

func NewAsset(symbol string, bars []Bar, opts ...AssetOption) (*Asset, error) {
	if symbol == "" {
		return nil, fmt.Errorf("new asset: empty symbol")
	}
	s, err := NewSeries(bars)
	if err != nil {
		return nil, fmt.Errorf("new asset %s: %w", symbol, err)
	}
	a := &Asset{symbol: symbol, series: s, session: DefaultSession()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Asset) Symbol() string { return a.symbol }

func (a *Asset) Series() *Series { return a.series }

func (a *Asset) Session() Session { return a.session }

// Bar returns the bar for date's calendar day.
func (a *Asset) Bar(date time.Time) (Bar, bool) { return a.series.At(date) }

// TradingDays lists every date with a bar.
func (a *Asset) TradingDays() []time.Time {
	days := make([]time.Time, 0, a.series.Len())
	for _, b := range a.series.bars {
		days = append(days, b.Date)
	}
	return days
}

// Censored is Series.Censored for this asset.
func (a *Asset) Censored(asOf time.Time, afterOpen bool) (Window, error) {
	return a.series.Censored(asOf, afterOpen)
}

// LimitOnOpen reports the trade a limit order would get in date's open
// auction, or false when it would not fill.
func (a *Asset) LimitOnOpen(date time.Time, limit, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool) {
	return a.match(OpenAuction, date, limit, size, isBuy, meta)
}

// LimitOnClose is LimitOnOpen for the closing auction.
func (a *Asset) LimitOnClose(date time.Time, limit, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool) {
	return a.match(CloseAuction, date, limit, size, isBuy, meta)
}

// Match dispatches on the auction kind.
func (a *Asset) Match(kind Auction, date time.Time, limit, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool) {
	return a.match(kind, date, limit, size, isBuy, meta)
}

// match fills the whole size at the auction price when the price clears the
// limit: at or below it for buys, at or above it for sells. A day without a
// bar never fills.
func (a *Asset) match(kind Auction, date time.Time, limit, size float64, isBuy bool, meta accounting.Meta) (accounting.Trade, bool) {
	bar, ok := a.series.At(date)
	if !ok {
		return accounting.Trade{}, false
	}

	price, clock := bar.Open, a.session.Open
	if kind == CloseAuction {
		price, clock = bar.Close, a.session.Close
	}

	signed := size
	if isBuy {
		if price > limit {
			return accounting.Trade{}, false
		}
	} else {
		if price < limit {
			return accounting.Trade{}, false
		}
		signed = -size
	}

	return accounting.Trade{
		Price:  price,
		Size:   signed,
		Symbol: a.symbol,
		Time:   a.session.At(date, clock),
		Meta:   meta.Clone(),
	}, true
}
