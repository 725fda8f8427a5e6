package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarColumns is the canonical price-bar CSV header.
var BarColumns = []string{"date", "open", "high", "low", "close", "volume", "divCash", "splitFactor"}

// LoadBarsCSV reads a price-bar CSV file. See ReadBarsCSV.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadBarsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBarsCSV reads rows of
//
//	date,open,high,low,close,volume,divCash,splitFactor
//
// Columns are matched by header name, so their order is free. date may be
// YYYY-MM-DD or RFC3339; only its calendar day is kept. Missing divCash
// defaults to 0 and missing splitFactor to 1. Blank lines are skipped.
func ReadBarsCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptySeries
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range BarColumns[:5] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", required, ErrBadBar)
		}
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		b, err := parseBarRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string, cols map[string]int) (Bar, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}
	number := func(name string, def float64) (float64, error) {
		s, ok := field(name)
		if !ok {
			return def, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s %q: %w", name, s, err)
		}
		return v, nil
	}

	ds, ok := field("date")
	if !ok {
		return Bar{}, fmt.Errorf("missing date: %w", ErrBadBar)
	}
	date, err := parseDate(ds)
	if err != nil {
		return Bar{}, err
	}

	b := Bar{Date: date}
	targets := []struct {
		name string
		dst  *float64
		def  float64
	}{
		{"open", &b.Open, 0},
		{"high", &b.High, 0},
		{"low", &b.Low, 0},
		{"close", &b.Close, 0},
		{"volume", &b.Volume, 0},
		{"divCash", &b.DivCash, 0},
		{"splitFactor", &b.SplitFactor, 1},
	}
	for _, tg := range targets {
		if *tg.dst, err = number(tg.name, tg.def); err != nil {
			return Bar{}, err
		}
	}
	return b, nil
}

// parseDate accepts a plain date or an RFC3339 timestamp. The calendar day
// is taken in the timestamp's own offset.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q: %w", s, ErrBadBar)
}

// WriteBarsCSV writes bars in the canonical layout.
func WriteBarsCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BarColumns); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			b.Date.Format(time.DateOnly),
			ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close),
			ff(b.Volume), ff(b.DivCash), ff(b.SplitFactor),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
