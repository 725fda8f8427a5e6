package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// RecordRun stores s in the runs table, replacing an earlier record with
// the same run id.
func (j *SQLite) RecordRun(s Summary) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, strategy, symbols, start_date, end_date, days,
		 start_cash, end_cash, long_equity, short_equity, total_value,
		 trades, wins, losses, realized, commissions, dividends, org_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Created.Format(time.RFC3339), s.Strategy, strings.Join(s.Symbols, ","),
		s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly), s.Days,
		s.StartCash, s.EndCash, s.LongEquity, s.ShortEquity, s.Total,
		s.Trades, s.Wins, s.Losses, s.Realized, s.Commissions, s.Dividends, s.OrgPath,
	)
	return err
}

// GetRun loads a run summary by id.
func (j *SQLite) GetRun(runID string) (Summary, error) {
	var (
		s                  Summary
		created, symbols   string
		startDate, endDate string
	)
	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, symbols, start_date, end_date, days,
		       start_cash, end_cash, long_equity, short_equity, total_value,
		       trades, wins, losses, realized, commissions, dividends, org_path
		FROM runs
		WHERE run_id = ?`, runID)
	err := row.Scan(
		&s.RunID, &created, &s.Strategy, &symbols, &startDate, &endDate, &s.Days,
		&s.StartCash, &s.EndCash, &s.LongEquity, &s.ShortEquity, &s.Total,
		&s.Trades, &s.Wins, &s.Losses, &s.Realized, &s.Commissions, &s.Dividends, &s.OrgPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("%q: %w", runID, ErrRunNotFound)
		}
		return Summary{}, err
	}

	if s.Created, err = time.Parse(time.RFC3339, created); err != nil {
		return Summary{}, err
	}
	if s.Start, err = time.Parse(time.DateOnly, startDate); err != nil {
		return Summary{}, err
	}
	if s.End, err = time.Parse(time.DateOnly, endDate); err != nil {
		return Summary{}, err
	}
	if symbols != "" {
		s.Symbols = strings.Split(symbols, ",")
	}
	return s, nil
}

// ListRuns returns run ids, oldest first.
func (j *SQLite) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT run_id FROM runs ORDER BY created ASC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CountRows counts a run's rows in table.
func (j *SQLite) CountRows(table, runID string) (int, error) {
	if !validName(table) {
		return 0, fmt.Errorf("%q: %w", table, ErrBadTable)
	}
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM `+quote(table)+` WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Columns lists table's column names in declaration order.
func (j *SQLite) Columns(table string) ([]string, error) {
	rows, err := j.db.Query(`PRAGMA table_info(` + quote(table) + `)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
