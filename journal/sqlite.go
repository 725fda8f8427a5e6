package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/daybook/accounting"
)

var ErrNoRunID = errors.New("sqlite journal has no run id")

// SQLite writes each table into a database table of the same name. Every
// row is stamped with the run id, so one database can hold many runs.
// Columns are added as new keys show up.
type SQLite struct {
	db    *sql.DB
	runID string
}

// NewSQLite opens or creates the database at path. A journal opened with
// an empty run id can be queried but not written to.
func NewSQLite(path, runID string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, runID: runID}, nil
}

func (j *SQLite) RunID() string { return j.runID }

// WriteTable replaces this run's rows in table name.
func (j *SQLite) WriteTable(name string, rs []accounting.Row) error {
	if !validName(name) || name == "runs" {
		return fmt.Errorf("%q: %w", name, ErrBadTable)
	}
	if j.runID == "" {
		return ErrNoRunID
	}
	cols := columns(rs)
	if err := j.ensureTable(name, rs, cols); err != nil {
		return err
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM `+quote(name)+` WHERE run_id = ?`, j.runID); err != nil {
		return err
	}

	names := []string{RunIDColumn}
	marks := []string{"?"}
	for _, c := range cols {
		names = append(names, quote(c))
		marks = append(marks, "?")
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quote(name), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols)+1)
	for _, r := range rs {
		args[0] = j.runID
		for i, c := range cols {
			args[i+1] = nil
			if v, ok := r.Get(c); ok {
				args[i+1] = sqlValue(v)
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) ensureTable(name string, rs []accounting.Row, cols []string) error {
	_, err := j.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run_id TEXT NOT NULL)`, quote(name)))
	if err != nil {
		return err
	}
	have, err := j.Columns(name)
	if err != nil {
		return err
	}
	existing := map[string]bool{}
	for _, c := range have {
		existing[c] = true
	}
	for _, c := range cols {
		if existing[c] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, quote(name), quote(c), columnType(rs, c))
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// columnType is REAL when the column's first value is a number.
func columnType(rs []accounting.Row, col string) string {
	for _, r := range rs {
		if v, ok := r.Get(col); ok {
			if v.Kind() == accounting.KindNumber {
				return "REAL"
			}
			return "TEXT"
		}
	}
	return "TEXT"
}

func sqlValue(v accounting.Value) any {
	switch v.Kind() {
	case accounting.KindNumber:
		n, _ := v.Number()
		return n
	case accounting.KindTime:
		t, _ := v.Time()
		return t.Format(time.RFC3339)
	}
	return v.String()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
