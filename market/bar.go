package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptySeries    = errors.New("price series is empty")
	ErrUnsortedSeries = errors.New("price series is not sorted by date")
	ErrDuplicateDate  = errors.New("price series has duplicate dates")
	ErrBadBar         = errors.New("invalid price bar")
)

// Bar is one trading day for one symbol.
type Bar struct {
	Date        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	DivCash     float64
	SplitFactor float64
}

// Day implements censor.Dated.
func (b Bar) Day() time.Time { return b.Date }

func (b Bar) validate() error {
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close,
		"volume": b.Volume, "divCash": b.DivCash, "splitFactor": b.SplitFactor,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %s is %g: %w", b.Date.Format(time.DateOnly), name, v, ErrBadBar)
		}
	}
	return nil
}

// Day truncates t to its calendar date, expressed as midnight UTC. Every
// date the engine compares goes through Day so that bars, auction times and
// query times line up regardless of their location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
