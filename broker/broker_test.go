package broker

import (
	"testing"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/censor"
	"github.com/rustyeddy/daybook/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2004, 8, d, 0, 0, 0, 0, time.UTC)
}

// accBars is five days of a thinly traded stock with a dividend on the 17th.
func accBars(div float64) []market.Bar {
	dates := []int{12, 13, 16, 17, 18}
	open := []float64{17.5, 17.5, 17.54, 17.35, 17.25}
	high := []float64{17.58, 17.51, 17.54, 17.4, 17.29}
	low := []float64{17.5, 17.5, 17.5, 17.15, 17.0}
	closes := []float64{17.5, 17.51, 17.5, 17.34, 17.11}
	volume := []float64{2545100, 593000, 684700, 295900, 121300}

	bars := make([]market.Bar, len(dates))
	for i := range dates {
		bars[i] = market.Bar{
			Date: day(dates[i]), Open: open[i], High: high[i], Low: low[i], Close: closes[i],
			Volume: volume[i], SplitFactor: 1,
		}
	}
	bars[3].DivCash = div
	return bars
}

func accAsset(t *testing.T, bars []market.Bar) *market.Asset {
	t.Helper()
	a, err := market.NewAsset("acc", bars)
	require.NoError(t, err)
	return a
}

func newBroker(t *testing.T, cash float64, opts ...Option) *Broker {
	t.Helper()
	b := New(cash, opts...)
	require.NoError(t, b.AddAsset(accAsset(t, accBars(0.25))))
	return b
}

func meta(t *testing.T, kv ...any) accounting.Meta {
	t.Helper()
	m, err := accounting.NewMeta(kv...)
	require.NoError(t, err)
	return m
}

func TestAllowMargin(t *testing.T) {
	t.Parallel()

	b := New(10000)
	assert.False(t, b.allowMargin(-5))

	b2 := New(10000, WithMargin(10000))
	assert.True(t, b2.allowMargin(-5000))
	assert.False(t, b2.allowMargin(-15000))
}

func TestLimitOnOpen(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)

	_, ok, err := b.LimitOnOpen("acc", day(16), 10, 10, true, nil)
	require.NoError(t, err)
	assert.False(t, ok, "limit below the open must not fill")
	assert.Equal(t, 10000.0, b.Cash())
	assert.Empty(t, b.Trades())
	assert.False(t, b.HasLedger("acc"))

	tr, ok, err := b.LimitOnOpen("acc", day(16), 50, 10, true, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 17.54, tr.Price)
	assert.Equal(t, 10.0, tr.Size)
	ny := tr.Time.Location()
	assert.Equal(t, time.Date(2004, 8, 16, 9, 30, 0, 0, ny), tr.Time)
	assert.InDelta(t, 10000-17.54*10, b.Cash(), 1e-9)
	assert.Equal(t, 10.0, b.Quantity("acc"))
	assert.Empty(t, b.Commissions(), "zero commissions are not recorded")
}

func TestExecuteDividends(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, err := b.LimitOnOpen("acc", day(16), 50, 10, true, meta(t, "trade_id", "a"))
	require.NoError(t, err)
	require.True(t, ok)

	before := b.Cash()
	b.ExecuteDividends(day(16))
	assert.Equal(t, before, b.Cash(), "no dividend on the 16th")

	b.ExecuteDividends(day(17))
	divs := b.Dividends()
	require.Len(t, divs, 1)
	assert.InDelta(t, 2.5, divs[0].Amount, 1e-12)
	assert.Equal(t, 0.25, divs[0].PerShare)
	assert.Equal(t, 10.0, divs[0].Shares)
	assert.Equal(t, "acc", divs[0].Symbol)
	assert.Equal(t, day(17), divs[0].ExDate)
	assert.InDelta(t, before+2.5, b.Cash(), 1e-9)

	v, ok := divs[0].Row().Get("trade_id")
	require.True(t, ok)
	assert.Equal(t, "a", v.String())

	// Non-trading days pay nothing.
	b.ExecuteDividends(day(14))
	assert.Len(t, b.Dividends(), 1)
}

func TestDividendsPerLot(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, _ := b.LimitOnOpen("acc", day(12), 50, 3, true, nil)
	require.True(t, ok)
	_, ok, _ = b.LimitOnOpen("acc", day(13), 50, 4, true, nil)
	require.True(t, ok)

	b.ExecuteDividends(day(17))
	divs := b.Dividends()
	require.Len(t, divs, 2)
	assert.Equal(t, 3.0, divs[0].Shares)
	assert.Equal(t, 4.0, divs[1].Shares)
	assert.Equal(t, day(12), market.Day(divs[0].AcquiredAt))
}

func TestDiscountBrokerCommissions(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 1000000, WithCommission(DiscountCommission))

	_, ok, err := b.LimitOnOpen("acc", day(16), 50, 10, true, meta(t, "trade_id", "bar"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 999823.6, b.Cash(), 1e-6)

	_, ok, err = b.LimitOnOpen("acc", day(16), 50, 350, true, meta(t, "trade_id", "foo"))
	require.NoError(t, err)
	require.True(t, ok)

	comms := b.Commissions()
	require.Len(t, comms, 2)
	assert.InDelta(t, 1.00, comms[0].Amount, 1e-12)
	assert.InDelta(t, 1.75, comms[1].Amount, 1e-12)

	v, ok := comms[1].Row().Get("trade_id")
	require.True(t, ok)
	assert.Equal(t, "foo", v.String())

	trades := b.Trades()
	require.Len(t, trades, 2)
	assert.InDelta(t, 1.75, trades[1].Commission, 1e-12)
	assert.InDelta(t, 1.75/350, b.Positions()[1].CommissionPerShare, 1e-12)
}

func TestDiscountCommissionSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		price float64
		size  float64
		want  float64
	}{
		{"minimum", 17.54, 10, 1.00},
		{"per share", 17.54, 350, 1.75},
		{"capped", 17.5, 1, 0.175},
		{"capped sale", 17.34, -3, 0.5202},
		{"large", 100, 1000, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DiscountCommission(tt.price, tt.size, true), 1e-12)
		})
	}

	fn, err := CommissionByName("discount")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fn(17.54, 10, true), 1e-12)
	fn, err = CommissionByName("")
	require.NoError(t, err)
	assert.Zero(t, fn(17.54, 10, true))
	_, err = CommissionByName("retail")
	assert.Error(t, err)
}

func TestShortSelling(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, err := b.LimitOnOpen("acc", day(16), 1, 5, false, nil)
	require.NoError(t, err)
	assert.False(t, ok, "shorts are rejected by default")
	assert.False(t, b.HasLedger("acc"))

	b = newBroker(t, 10000, WithShortSelling(true))
	tr, ok, err := b.LimitOnOpen("acc", day(16), 1, 5, false, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -5.0, tr.Size)
	assert.Equal(t, -5.0, b.Quantity("acc"))
	assert.InDelta(t, 10000+17.54*5, b.Cash(), 1e-9)
}

func TestShortSaleSkipsMarginFloor(t *testing.T) {
	t.Parallel()

	// Projected cash rises on a sale, so only the position check applies.
	b := newBroker(t, 0, WithShortSelling(true))
	tr, ok, err := b.LimitOnOpen("acc", day(16), 1, 100, false, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -100.0, tr.Size)
	assert.InDelta(t, 1754.0, b.Cash(), 1e-9)
}

func TestSellWithinPosition(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, _ := b.LimitOnOpen("acc", day(12), 50, 5, true, nil)
	require.True(t, ok)

	_, ok, err := b.LimitOnClose("acc", day(12), 1, 6, false, nil)
	require.NoError(t, err)
	assert.False(t, ok, "selling more than held would go short")

	_, ok, err = b.LimitOnClose("acc", day(12), 1, 2, false, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, b.Quantity("acc"))
}

func TestMarginConstraint(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 100)
	_, ok, err := b.LimitOnOpen("acc", day(16), 50, 10, true, nil)
	require.NoError(t, err)
	assert.False(t, ok, "the check uses the limit price")
	assert.Equal(t, 100.0, b.Cash())

	b = newBroker(t, 100, WithMargin(1000))
	_, ok, err = b.LimitOnOpen("acc", day(16), 50, 10, true, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 100-175.4, b.Cash(), 1e-9)
}

func TestMarginSlackAfterCommission(t *testing.T) {
	t.Parallel()

	// The pre-trade estimate ignores commission, so cash can end just below
	// the floor.
	bars := []market.Bar{{Date: day(12), Open: 10, High: 10, Low: 10, Close: 10, SplitFactor: 1}}
	b := New(100, WithCommission(DiscountCommission), WithAssets(accAsset(t, bars)))
	_, ok, err := b.LimitOnOpen("acc", day(12), 10, 10, true, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -1.0, b.Cash())
}

func TestLedgerTeardown(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, _ := b.LimitOnOpen("acc", day(12), 50, 10, true, meta(t, "trade_id", "1"))
	require.True(t, ok)
	require.True(t, b.HasLedger("acc"))

	_, ok, _ = b.LimitOnClose("acc", day(13), 1, 10, false, meta(t, "trade_id", "0"))
	require.True(t, ok)

	assert.False(t, b.HasLedger("acc"))
	assert.Empty(t, b.Positions())
	assert.Zero(t, b.Quantity("acc"))

	gains := b.CapitalGains()
	require.Len(t, gains, 1)
	assert.Equal(t, 10.0, gains[0].Size)
	assert.Equal(t, 17.5, gains[0].OpenPrice)
	assert.Equal(t, 17.51, gains[0].ClosePrice)

	// A new position starts a fresh ledger; archived gains stay first.
	_, ok, _ = b.LimitOnOpen("acc", day(16), 50, 4, true, nil)
	require.True(t, ok)
	_, ok, _ = b.LimitOnClose("acc", day(16), 1, 1, false, nil)
	require.True(t, ok)
	gains = b.CapitalGains()
	require.Len(t, gains, 2)
	assert.Equal(t, 17.51, gains[0].ClosePrice)
	assert.Equal(t, 17.54, gains[1].OpenPrice)
}

func TestFractionalCloseTearsDownLedger(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	for _, size := range []float64{0.1, 0.2} {
		_, ok, err := b.LimitOnOpen("acc", day(16), 50, size, true, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := b.LimitOnClose("acc", day(16), 1, 0.3, false, nil)
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, b.HasLedger("acc"))
	assert.Empty(t, b.Positions())
	assert.Len(t, b.CapitalGains(), 2)
}

func TestOrderErrors(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)

	_, _, err := b.LimitOnOpen("nope", day(16), 50, 1, true, nil)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, _, err = b.LimitOnOpen("acc", day(16), 50, 0, true, nil)
	assert.ErrorIs(t, err, accounting.ErrZeroSizeTrade)

	_, _, err = b.LimitOnOpen("acc", day(16), 50, -1, true, nil)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, _, err = b.LimitOnClose("acc", day(16), -50, 1, true, nil)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	bad := accounting.Meta{{Key: "", Value: accounting.StringValue("x")}}
	_, _, err = b.LimitOnOpen("acc", day(16), 50, 1, true, bad)
	assert.ErrorIs(t, err, accounting.ErrBadMeta)

	column := accounting.Meta{accounting.StringField("shares", "all")}
	_, _, err = b.LimitOnClose("acc", day(16), 1, 1, true, column)
	assert.ErrorIs(t, err, accounting.ErrBadMeta)

	assert.Equal(t, 10000.0, b.Cash())
	assert.Empty(t, b.Trades())

	assert.ErrorIs(t, b.AddAsset(accAsset(t, accBars(0))), ErrDuplicateAsset)
}

func TestSplits(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{
		{Date: day(12), Open: 10, High: 10, Low: 10, Close: 10, SplitFactor: 1},
		{Date: day(13), Open: 10, High: 10, Low: 10, Close: 10, SplitFactor: 1},
		{Date: day(16), Open: 5, High: 5, Low: 5, Close: 5, SplitFactor: 2},
	}
	b := New(10000, WithCommission(DiscountCommission), WithAssets(accAsset(t, bars)))

	_, ok, err := b.LimitOnOpen("acc", day(12), 10, 10, true, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 9899, b.Cash(), 1e-9)

	require.NoError(t, b.ExecuteSplits(day(13)))
	assert.Equal(t, 10.0, b.Quantity("acc"))

	require.NoError(t, b.ExecuteSplits(day(16)))
	assert.Equal(t, 20.0, b.Quantity("acc"))
	assert.InDelta(t, 9899, b.Cash(), 1e-9)
	pos := b.Positions()
	require.Len(t, pos, 1)
	assert.Equal(t, 5.0, pos[0].Price)

	splits := b.Splits()
	require.Len(t, splits, 1)
	assert.Equal(t, 10.0, splits[0].Before)
	assert.Equal(t, 20.0, splits[0].After)

	b.DayFinished(day(16))
	series := b.CashSeries()
	require.Len(t, series, 1)
	assert.InDelta(t, 100, series[0].LongEquity, 1e-9)
	assert.InDelta(t, 9899, series[0].Cash, 1e-9)
}

func TestSplitsDisabled(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{
		{Date: day(12), Open: 10, Close: 10, SplitFactor: 1},
		{Date: day(13), Open: 5, Close: 5, SplitFactor: 2},
	}
	b := New(10000, WithSplits(false), WithAssets(accAsset(t, bars)))
	_, ok, _ := b.LimitOnOpen("acc", day(12), 10, 10, true, nil)
	require.True(t, ok)
	require.NoError(t, b.ExecuteSplits(day(13)))
	assert.Equal(t, 10.0, b.Quantity("acc"))
	assert.Empty(t, b.Splits())
}

func TestValuation(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000)
	_, ok, _ := b.LimitOnOpen("acc", day(13), 50, 10, true, nil)
	require.True(t, ok)

	p, err := b.LastKnownPrice("acc", day(16), false)
	require.NoError(t, err)
	assert.Equal(t, 17.51, p, "before the open the last close is the best price")

	p, err = b.LastKnownPrice("acc", day(16), true)
	require.NoError(t, err)
	assert.Equal(t, 17.54, p)

	v, err := b.MarkToMarket(day(16), true)
	require.NoError(t, err)
	assert.InDelta(t, 10000-175.0, v.Cash, 1e-9)
	assert.InDelta(t, 175.4, v.LongEquity, 1e-9)
	assert.Zero(t, v.ShortEquity)
	assert.InDelta(t, v.Cash+v.LongEquity, v.Total, 1e-12)

	_, err = b.LastKnownPrice("acc", day(12), false)
	assert.ErrorIs(t, err, ErrNoPrice)

	_, err = b.HistoricalPrices("acc", day(1), false)
	assert.ErrorIs(t, err, censor.ErrOutOfRange)
}

func TestFillsSince(t *testing.T) {
	t.Parallel()

	b := newBroker(t, 10000, WithCommission(DiscountCommission))
	c := b.Cursor()

	_, ok, _ := b.LimitOnOpen("acc", day(12), 50, 1, true, nil)
	require.True(t, ok)
	trades, comms, c := b.FillsSince(c)
	assert.Len(t, trades, 1)
	assert.Len(t, comms, 1)

	trades, comms, _ = b.FillsSince(c)
	assert.Empty(t, trades)
	assert.Empty(t, comms)
}
