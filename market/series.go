package market

import (
	"fmt"
	"time"

	"github.com/google/btree"
	"github.com/rustyeddy/daybook/censor"
)

// Series is an immutable, date-ordered run of bars for one symbol. Bars
// are kept both as a sorted slice, for censoring, and in a B-tree keyed by
// date, for point lookups.
type Series struct {
	bars  []Bar
	index *btree.BTreeG[Bar]
}

func barLess(a, b Bar) bool {
	return a.Date.Before(b.Date)
}

// NewSeries validates and indexes bars. Dates are truncated with Day and
// must be strictly increasing.
func NewSeries(bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	const degree = 16
	s := &Series{
		bars:  make([]Bar, len(bars)),
		index: btree.NewG[Bar](degree, barLess),
	}
	for i, b := range bars {
		b.Date = Day(b.Date)
		if err := b.validate(); err != nil {
			return nil, err
		}
		if i > 0 {
			prev := s.bars[i-1].Date
			if b.Date.Equal(prev) {
				return nil, fmt.Errorf("bar %d (%s): %w", i, b.Date.Format(time.DateOnly), ErrDuplicateDate)
			}
			if b.Date.Before(prev) {
				return nil, fmt.Errorf("bar %d (%s) before %s: %w", i,
					b.Date.Format(time.DateOnly), prev.Format(time.DateOnly), ErrUnsortedSeries)
			}
		}
		s.bars[i] = b
		s.index.ReplaceOrInsert(b)
	}
	return s, nil
}

func (s *Series) Len() int { return len(s.bars) }

func (s *Series) First() time.Time { return s.bars[0].Date }

func (s *Series) Last() time.Time { return s.bars[len(s.bars)-1].Date }

// Bars returns a copy of every bar.
func (s *Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// At returns the bar dated on date's calendar day, if there is one.
func (s *Series) At(date time.Time) (Bar, bool) {
	return s.index.Get(Bar{Date: Day(date)})
}

// OnOrBefore returns the latest bar dated on or before date's calendar day.
func (s *Series) OnOrBefore(date time.Time) (Bar, bool) {
	var (
		found Bar
		ok    bool
	)
	s.index.DescendLessOrEqual(Bar{Date: Day(date)}, func(b Bar) bool {
		found, ok = b, true
		return false
	})
	return found, ok
}

// Window is what a strategy may know about a series at one instant.
type Window struct {
	// Bars are complete bars dated before the cutoff day.
	Bars []Bar
	// Open is the cutoff day's open; it is only set once that open has
	// happened.
	Open    float64
	HasOpen bool
}

// LastPrice is the most recent known price: the open when it is visible,
// otherwise the last complete close.
func (w Window) LastPrice() (float64, bool) {
	if w.HasOpen {
		return w.Open, true
	}
	if len(w.Bars) == 0 {
		return 0, false
	}
	return w.Bars[len(w.Bars)-1].Close, true
}

// Closes extracts the close of every visible bar.
func (w Window) Closes() []float64 {
	out := make([]float64, len(w.Bars))
	for i, b := range w.Bars {
		out[i] = b.Close
	}
	return out
}

// Censored returns the bars knowable at asOf. Before the open only earlier
// bars are visible; after the open the cutoff day's open is visible too.
// Nothing else about the cutoff day is ever exposed.
func (s *Series) Censored(asOf time.Time, afterOpen bool) (Window, error) {
	day := Day(asOf)
	visible, err := censor.Prefix(s.bars, day)
	if err != nil {
		return Window{}, err
	}
	w := Window{Bars: make([]Bar, len(visible))}
	copy(w.Bars, visible)

	if afterOpen {
		cut, _ := s.OnOrBefore(day)
		w.Open, w.HasOpen = cut.Open, true
	}
	return w, nil
}
