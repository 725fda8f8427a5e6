package sim

import (
	"time"

	"github.com/rustyeddy/daybook/market"
)

// IsBusinessDay reports whether t falls Monday through Friday. Exchange
// holidays are not modelled.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextBusinessDay returns the first business day strictly after t's date.
func NextBusinessDay(t time.Time) time.Time {
	d := market.Day(t).AddDate(0, 0, 1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// FirstBusinessDay returns t's date, or the next business day when t falls
// on a weekend.
func FirstBusinessDay(t time.Time) time.Time {
	d := market.Day(t)
	if IsBusinessDay(d) {
		return d
	}
	return NextBusinessDay(d)
}

// BusinessDays lists every business day from start to end inclusive.
func BusinessDays(start, end time.Time) []time.Time {
	var out []time.Time
	last := market.Day(end)
	for d := FirstBusinessDay(start); !d.After(last); d = NextBusinessDay(d) {
		out = append(out, d)
	}
	return out
}
