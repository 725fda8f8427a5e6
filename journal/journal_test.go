package journal

import (
	"testing"
	"time"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2004, 8, d, 0, 0, 0, 0, time.UTC)
}

// roundTrip buys 10 shares at the open on the 2nd and sells them at the
// close on the 3rd for a 20.00 gain.
func roundTrip(t *testing.T) *broker.Broker {
	t.Helper()

	bars := []market.Bar{
		{Date: day(2), Open: 10, High: 10, Low: 10, Close: 10, SplitFactor: 1},
		{Date: day(3), Open: 11, High: 12, Low: 11, Close: 12, SplitFactor: 1},
	}
	a, err := market.NewAsset("xyz", bars)
	require.NoError(t, err)
	b := broker.New(10000, broker.WithAssets(a))

	m, err := accounting.NewMeta("signal", "entry")
	require.NoError(t, err)
	_, ok, err := b.LimitOnOpen("xyz", day(2), 11, 10, true, m)
	require.NoError(t, err)
	require.True(t, ok)
	b.DayFinished(day(2))

	_, ok, err = b.LimitOnClose("xyz", day(3), 1, 10, false, nil)
	require.NoError(t, err)
	require.True(t, ok)
	b.DayFinished(day(3))
	return b
}

func TestColumnsUnion(t *testing.T) {
	t.Parallel()

	rs := []accounting.Row{
		{accounting.NumberField("a", 1), accounting.StringField("b", "x")},
		{accounting.NumberField("a", 2), accounting.NumberField("c", 3)},
	}
	assert.Equal(t, []string{"a", "b", "c"}, columns(rs))
	assert.Empty(t, columns(nil))
}

func TestValidName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"trades":       true,
		"cash_vs_time": true,
		"t2":           true,
		"":             false,
		"2t":           false,
		"a-b":          false,
		"../x":         false,
		`x"; drop`:     false,
	} {
		assert.Equal(t, want, validName(name), name)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	var j Journal = Discard{}
	require.NoError(t, Export(j, roundTrip(t)))
	assert.NoError(t, j.Close())
}
