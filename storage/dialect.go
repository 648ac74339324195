package storage

import (
	"strconv"
	"strings"
)

type dialect struct {
	driver       string
	numbered     bool // $1, $2, ... instead of ?
	singleConn   bool
	pingAttempts int
	schema       []string
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var postgresDialect = dialect{
	driver:       "postgres",
	numbered:     true,
	pingAttempts: 10,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id            SERIAL PRIMARY KEY,
			run_id        TEXT UNIQUE NOT NULL,
			league        TEXT NOT NULL,
			salary_column TEXT NOT NULL DEFAULT '',
			records       INTEGER NOT NULL DEFAULT 0,
			started_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS salary_records (
			id     SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES scrape_runs(run_id),
			league TEXT NOT NULL,
			team   TEXT NOT NULL,
			year   INTEGER NOT NULL,
			salary NUMERIC(14,2),
			raw    JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS salary_summaries (
			run_id TEXT NOT NULL REFERENCES scrape_runs(run_id),
			league TEXT NOT NULL,
			year   INTEGER NOT NULL,
			mean   DOUBLE PRECISION NOT NULL,
			median DOUBLE PRECISION NOT NULL,
			q1     DOUBLE PRECISION NOT NULL,
			q3     DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scrape_runs_league ON scrape_runs(league)`,
		`CREATE INDEX IF NOT EXISTS idx_salary_records_team_year ON salary_records(league, team, year)`,
	},
}

var sqliteDialect = dialect{
	driver:       "sqlite",
	singleConn:   true,
	pingAttempts: 1,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT UNIQUE NOT NULL,
			league        TEXT NOT NULL,
			salary_column TEXT NOT NULL DEFAULT '',
			records       INTEGER NOT NULL DEFAULT 0,
			started_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS salary_records (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES scrape_runs(run_id),
			league TEXT NOT NULL,
			team   TEXT NOT NULL,
			year   INTEGER NOT NULL,
			salary REAL,
			raw    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS salary_summaries (
			run_id TEXT NOT NULL REFERENCES scrape_runs(run_id),
			league TEXT NOT NULL,
			year   INTEGER NOT NULL,
			mean   REAL NOT NULL,
			median REAL NOT NULL,
			q1     REAL NOT NULL,
			q3     REAL NOT NULL,
			PRIMARY KEY (run_id, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scrape_runs_league ON scrape_runs(league)`,
		`CREATE INDEX IF NOT EXISTS idx_salary_records_team_year ON salary_records(league, team, year)`,
	},
}
