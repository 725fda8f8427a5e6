// Package journal exports a finished run's record sets as flat tables.
package journal

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/daybook/accounting"
	"github.com/rustyeddy/daybook/broker"
)

// Table names written by Export.
const (
	TableTrades       = "trades"
	TableCommissions  = "commissions"
	TableCapitalGains = "capital_gains"
	TableDividends    = "dividends"
	TablePositions    = "positions"
	TableCashSeries   = "cash_vs_time"
	TableSplits       = "splits"
)

var ErrBadTable = errors.New("invalid table name")

// Journal is a sink for named tables of flat rows.
type Journal interface {
	WriteTable(name string, rows []accounting.Row) error
	Close() error
}

// Source is everything Export reads. *broker.Broker satisfies it.
type Source interface {
	Trades() []accounting.Trade
	Commissions() []broker.Commission
	CapitalGains() []accounting.Gain
	Dividends() []broker.Dividend
	Positions() []accounting.Lot
	CashSeries() []broker.CashPoint
	Splits() []broker.Split
}

type rower interface {
	Row() accounting.Row
}

func rows[T rower](xs []T) []accounting.Row {
	out := make([]accounting.Row, len(xs))
	for i, x := range xs {
		out[i] = x.Row()
	}
	return out
}

// Export writes every record set of src to j. Empty record sets are
// still written so that each table exists.
func Export(j Journal, src Source) error {
	tables := []struct {
		name string
		rows []accounting.Row
	}{
		{TableTrades, rows(src.Trades())},
		{TableCommissions, rows(src.Commissions())},
		{TableCapitalGains, rows(src.CapitalGains())},
		{TableDividends, rows(src.Dividends())},
		{TablePositions, rows(src.Positions())},
		{TableCashSeries, rows(src.CashSeries())},
		{TableSplits, rows(src.Splits())},
	}
	for _, t := range tables {
		if err := j.WriteTable(t.name, t.rows); err != nil {
			return fmt.Errorf("journal %s: %w", t.name, err)
		}
	}
	return nil
}

// columns is the union of keys across rows, in first-seen order.
func columns(rs []accounting.Row) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rs {
		for _, f := range r {
			if _, ok := seen[f.Key]; ok {
				continue
			}
			seen[f.Key] = struct{}{}
			cols = append(cols, f.Key)
		}
	}
	return cols
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Discard drops everything written to it.
type Discard struct{}

func (Discard) WriteTable(string, []accounting.Row) error { return nil }
func (Discard) Close() error                              { return nil }
