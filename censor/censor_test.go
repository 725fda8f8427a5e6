package censor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type row struct {
	date  time.Time
	value float64
}

func (r row) Day() time.Time { return r.date }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRows() []row {
	return []row{
		{day(2004, 8, 12), 1},
		{day(2004, 8, 13), 2},
		{day(2004, 8, 16), 3},
		{day(2004, 8, 17), 4},
		{day(2004, 8, 18), 5},
	}
}

func TestPrefix(t *testing.T) {
	t.Parallel()

	rows := sampleRows()

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"first day sees nothing", day(2004, 8, 12), 0},
		{"monday sees friday and before", day(2004, 8, 16), 2},
		{"weekend uses friday as cutoff", day(2004, 8, 15), 1},
		{"intraday time on a trading day", day(2004, 8, 17).Add(13 * time.Hour), 3},
		{"after the last row", day(2004, 9, 1), 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Prefix(rows, tt.asOf)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestPrefixOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := Prefix(sampleRows(), day(2004, 8, 11))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Prefix([]row{}, day(2004, 8, 11))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPrefixDuplicateDates(t *testing.T) {
	t.Parallel()

	rows := []row{
		{day(2020, 1, 1), 1},
		{day(2020, 1, 2), 2},
		{day(2020, 1, 2), 3},
		{day(2020, 1, 3), 4},
	}
	got, err := Prefix(rows, day(2020, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []row{{day(2020, 1, 1), 1}}, got)
}

func TestCutoff(t *testing.T) {
	t.Parallel()

	idx, d, err := Cutoff(sampleRows(), day(2004, 8, 14))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, day(2004, 8, 13), d)
}

func TestSorted(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Sorted(sampleRows()))

	bad := []row{{day(2020, 1, 2), 0}, {day(2020, 1, 1), 0}}
	assert.ErrorIs(t, Sorted(bad), ErrUnsorted)
}

func TestProperty_NoLookAhead(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 60).Draw(t, "rows")
		gaps := rapid.SliceOfN(rapid.IntRange(1, 4), n, n).Draw(t, "gaps")

		rows := make([]row, n)
		d := day(2010, 1, 1)
		for i := range rows {
			d = d.AddDate(0, 0, gaps[i])
			rows[i] = row{date: d, value: float64(i)}
		}

		offset := rapid.IntRange(0, 4*n+4).Draw(t, "offset")
		asOf := rows[0].date.AddDate(0, 0, offset)

		_, cut, err := Cutoff(rows, asOf)
		if err != nil {
			t.Fatalf("cutoff: %v", err)
		}
		if cut.After(asOf) {
			t.Fatalf("cutoff %v after asOf %v", cut, asOf)
		}

		visible, err := Prefix(rows, asOf)
		if err != nil {
			t.Fatalf("prefix: %v", err)
		}
		for _, r := range visible {
			if !r.date.Before(cut) {
				t.Fatalf("row %v visible at cutoff %v", r.date, cut)
			}
		}
		for _, r := range rows[len(visible):] {
			if r.date.Before(cut) {
				t.Fatalf("row %v withheld though before cutoff %v", r.date, cut)
			}
		}
	})
}

func TestData(t *testing.T) {
	t.Parallel()

	d := NewData()
	require.NoError(t, Set(d, "sentiment", sampleRows()))

	_, err := Get[row](d, "sentiment")
	assert.ErrorIs(t, err, ErrNoDate)

	d.SetDate(day(2004, 8, 17))
	got, err := Get[row](d, "sentiment")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = Get[row](d, "missing")
	assert.ErrorIs(t, err, ErrUnknownData)

	type other struct{ row }
	_, err = Get[other](d, "sentiment")
	assert.Error(t, err)

	assert.Equal(t, []string{"sentiment"}, d.Names())
}

func TestDataRejectsUnsorted(t *testing.T) {
	t.Parallel()

	d := NewData()
	err := Set(d, "bad", []row{{day(2020, 1, 2), 0}, {day(2020, 1, 1), 0}})
	assert.ErrorIs(t, err, ErrUnsorted)
	assert.Empty(t, d.Names())
}

func ExamplePrefix() {
	rows := sampleRows()
	visible, _ := Prefix(rows, day(2004, 8, 16))
	for _, r := range visible {
		fmt.Println(r.date.Format(time.DateOnly))
	}
	// Output:
	// 2004-08-12
	// 2004-08-13
}
