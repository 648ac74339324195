package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"salary-trends/models"
)

// ErrNoStoredRun is returned when no run was ever saved for a league.
var ErrNoStoredRun = errors.New("no stored run")

// DBWriter persists runs to PostgreSQL or SQLite.
type DBWriter struct {
	db      *sql.DB
	dialect dialect
}

// NewDBWriter opens a connection, waits for the server to answer and runs
// schema migrations. driver is "postgres" or "sqlite".
func NewDBWriter(ctx context.Context, driver, dsn string) (*DBWriter, error) {
	var d dialect
	switch driver {
	case "postgres":
		d = postgresDialect
	case "sqlite":
		d = sqliteDialect
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if d.singleConn {
		db.SetMaxOpenConns(1)
	}

	for i := 0; i < d.pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i+1 < d.pingAttempts {
			select {
			case <-ctx.Done():
				_ = db.Close()
				return nil, fmt.Errorf("%s: ping: %w", driver, ctx.Err())
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping failed after retries: %w", driver, err)
	}

	w := &DBWriter{db: db, dialect: d}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return w, nil
}

func (w *DBWriter) migrate(ctx context.Context) error {
	for _, stmt := range w.dialect.schema {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores the run, its records and its summaries in one transaction.
func (w *DBWriter) SaveRun(ctx context.Context, run Run) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		w.dialect.rebind("INSERT INTO scrape_runs (run_id, league, salary_column, records, started_at) VALUES (?,?,?,?,?)"),
		run.ID, run.League, run.SalaryColumn, len(run.Records), run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("db: insert run: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(run.Records); i += batchSize {
		end := i + batchSize
		if end > len(run.Records) {
			end = len(run.Records)
		}
		if err := w.insertRecords(ctx, tx, run, run.Records[i:end]); err != nil {
			return err
		}
	}

	for _, s := range run.Summaries {
		_, err := tx.ExecContext(ctx,
			w.dialect.rebind("INSERT INTO salary_summaries (run_id, league, year, mean, median, q1, q3) VALUES (?,?,?,?,?,?,?)"),
			run.ID, run.League, s.Year, s.Mean, s.Median, s.Q1, s.Q3)
		if err != nil {
			return fmt.Errorf("db: insert summary %d: %w", s.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}

func (w *DBWriter) insertRecords(ctx context.Context, tx *sql.Tx, run Run, batch []*models.SalaryRecord) error {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for _, r := range batch {
		raw, err := json.Marshal(r.Values)
		if err != nil {
			return fmt.Errorf("db: encode record: %w", err)
		}
		var salary sql.NullFloat64
		if v, ok := r.Salary(run.SalaryColumn); ok {
			salary = sql.NullFloat64{Float64: v, Valid: true}
		}
		valueStrings = append(valueStrings, "(?,?,?,?,?,?)")
		valueArgs = append(valueArgs, run.ID, run.League, r.Team, r.Year, salary, string(raw))
	}

	query := w.dialect.rebind(fmt.Sprintf(
		"INSERT INTO salary_records (run_id, league, team, year, salary, raw) VALUES %s",
		strings.Join(valueStrings, ",")))
	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("db: insert records: %w", err)
	}
	return nil
}

// FetchSummaries returns the summaries of the most recent run of league,
// ordered by year.
func (w *DBWriter) FetchSummaries(ctx context.Context, league string) ([]models.YearlySummary, error) {
	var runID string
	err := w.db.QueryRowContext(ctx,
		w.dialect.rebind("SELECT run_id FROM scrape_runs WHERE league = ? ORDER BY id DESC LIMIT 1"),
		league).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for league %q", ErrNoStoredRun, league)
	}
	if err != nil {
		return nil, fmt.Errorf("db: latest run: %w", err)
	}

	rows, err := w.db.QueryContext(ctx,
		w.dialect.rebind("SELECT year, mean, median, q1, q3 FROM salary_summaries WHERE run_id = ? ORDER BY year"),
		runID)
	if err != nil {
		return nil, fmt.Errorf("db: fetch summaries: %w", err)
	}
	defer rows.Close()

	var out []models.YearlySummary
	for rows.Next() {
		var s models.YearlySummary
		if err := rows.Scan(&s.Year, &s.Mean, &s.Median, &s.Q1, &s.Q3); err != nil {
			return nil, fmt.Errorf("db: scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountRecords returns how many player records run runID stored.
func (w *DBWriter) CountRecords(ctx context.Context, runID string) (int, error) {
	var n int
	err := w.db.QueryRowContext(ctx,
		w.dialect.rebind("SELECT COUNT(*) FROM salary_records WHERE run_id = ?"), runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db: count records: %w", err)
	}
	return n, nil
}

func (w *DBWriter) Close() error {
	return w.db.Close()
}
