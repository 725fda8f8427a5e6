package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rustyeddy/daybook/accounting"
)

// CSV writes each table to <dir>/<name>.csv.
type CSV struct {
	dir string
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSV{dir: dir}, nil
}

func (j *CSV) Dir() string { return j.dir }

// Path returns the file a table is written to.
func (j *CSV) Path(name string) string {
	return filepath.Join(j.dir, name+".csv")
}

// WriteTable replaces the table's file. The header is the union of the
// rows' keys; a row missing a column gets an empty cell.
func (j *CSV) WriteTable(name string, rs []accounting.Row) error {
	if !validName(name) {
		return fmt.Errorf("%q: %w", name, ErrBadTable)
	}
	fh, err := os.Create(j.Path(name))
	if err != nil {
		return err
	}

	w := csv.NewWriter(fh)
	cols := columns(rs)
	if err := w.Write(cols); err != nil {
		fh.Close()
		return err
	}

	rec := make([]string, len(cols))
	for _, r := range rs {
		for i, c := range cols {
			rec[i] = ""
			if v, ok := r.Get(c); ok {
				rec[i] = cell(v)
			}
		}
		if err := w.Write(rec); err != nil {
			fh.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (j *CSV) Close() error { return nil }

func cell(v accounting.Value) string {
	switch v.Kind() {
	case accounting.KindNumber:
		n, _ := v.Number()
		return f(n)
	case accounting.KindTime:
		t, _ := v.Time()
		return t.Format(time.RFC3339)
	}
	return v.String()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
