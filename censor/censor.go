// Package censor restricts date-ordered data to what was knowable at a
// given instant.
//
// The rule is the same everywhere: find d, the latest row date that is not
// after the query time, and expose only the rows dated strictly before d.
// The row at d is still being formed (only its open may be public), so it is
// withheld.
package censor

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrOutOfRange  = errors.New("date precedes first known row")
	ErrUnsorted    = errors.New("rows are not sorted by date")
	ErrNoDate      = errors.New("censor date has not been set")
	ErrUnknownData = errors.New("unknown dataset")
)

// Dated is implemented by any row that carries a date.
type Dated interface {
	Day() time.Time
}

// Cutoff returns the index and date of the latest row dated on or before
// asOf. rows must be sorted ascending by Day().
func Cutoff[T Dated](rows []T, asOf time.Time) (int, time.Time, error) {
	n := sort.Search(len(rows), func(i int) bool {
		return rows[i].Day().After(asOf)
	})
	if n == 0 {
		return -1, time.Time{}, fmt.Errorf("censor %s: %w", asOf.Format(time.RFC3339), ErrOutOfRange)
	}
	idx := n - 1
	return idx, rows[idx].Day(), nil
}

// Prefix returns the rows visible at asOf: every row dated strictly before
// the cutoff date. The returned slice aliases rows and must not be modified.
func Prefix[T Dated](rows []T, asOf time.Time) ([]T, error) {
	_, d, err := Cutoff(rows, asOf)
	if err != nil {
		return nil, err
	}
	end := sort.Search(len(rows), func(i int) bool {
		return !rows[i].Day().Before(d)
	})
	return rows[:end:end], nil
}

// Sorted reports an error if rows are not in ascending date order.
// Equal dates are allowed.
func Sorted[T Dated](rows []T) error {
	for i := 1; i < len(rows); i++ {
		if rows[i].Day().Before(rows[i-1].Day()) {
			return fmt.Errorf("row %d (%s) before row %d (%s): %w",
				i, rows[i].Day().Format(time.DateOnly),
				i-1, rows[i-1].Day().Format(time.DateOnly), ErrUnsorted)
		}
	}
	return nil
}
