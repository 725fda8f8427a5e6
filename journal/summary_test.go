package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(roundTrip(t))
	assert.Equal(t, 10000.0, s.StartCash)
	assert.Equal(t, 10020.0, s.EndCash)
	assert.Equal(t, 2, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.Zero(t, s.Losses)
	assert.Equal(t, 20.0, s.Realized)
	assert.Zero(t, s.Commissions)
	assert.Zero(t, s.LongEquity)
	assert.Equal(t, 10020.0, s.Total)
	assert.Equal(t, 20.0, s.NetPL())
	assert.InDelta(t, 0.2, s.ReturnPct(), 1e-12)
	assert.Equal(t, 100.0, s.WinRate())
}

func TestSummaryZeroValues(t *testing.T) {
	t.Parallel()

	var s Summary
	assert.Zero(t, s.ReturnPct())
	assert.Zero(t, s.WinRate())
}

func sampleSummary() Summary {
	return Summary{
		RunID:      "01HX",
		Created:    time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Strategy:   "sma-cross",
		Symbols:    []string{"acc", "xyz"},
		Start:      time.Date(2004, 8, 2, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2004, 8, 31, 0, 0, 0, 0, time.UTC),
		Days:       22,
		StartCash:  10000,
		EndCash:    9500,
		LongEquity: 700,
		Total:      10200,
		Trades:     4,
		Wins:       1,
		Losses:     1,
		Realized:   35.5,
	}
}

func TestSummaryPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sampleSummary().Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "Run ID:        01HX")
	assert.Contains(t, out, "Strategy:      sma-cross")
	assert.Contains(t, out, "Start:         2004-08-02")
	assert.Contains(t, out, "Win Rate:      50.00%")
	assert.Contains(t, out, "Total Value:   10200.00")
	assert.Contains(t, out, "Net P/L:       200.00")
	assert.Contains(t, out, "Return:        2.00%")
	assert.NotContains(t, out, "Org Report")
}

func TestSummaryOrg(t *testing.T) {
	t.Parallel()

	out, err := sampleSummary().Org()
	require.NoError(t, err)

	assert.Contains(t, out, "* RUN: sma-cross acc,xyz")
	assert.Contains(t, out, ":RUN_ID:      01HX")
	assert.Contains(t, out, ":START_DATE:  2004-08-02")
	assert.Contains(t, out, ":END_DATE:    2004-08-31")
	assert.Contains(t, out, ":NET_PL:      200.00")
	assert.Contains(t, out, ":WIN_RATE:    50.00")
	assert.Contains(t, out, ":CREATED:     [2024-03-15 Fri 10:30]")
	assert.Contains(t, out, "| Long equity  | 700.00 |")
	assert.Contains(t, out, ":END:")
}

func TestSummaryOrgMissingRunID(t *testing.T) {
	t.Parallel()

	s := sampleSummary()
	s.RunID = ""
	out, err := s.Org()
	require.NoError(t, err)
	assert.Contains(t, out, "(run-id?)")
}

func TestSummaryWriteOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, sampleSummary().WriteOrg(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":STRATEGY:    sma-cross")
}
