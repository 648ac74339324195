package storage

import (
	"context"
	"time"

	"salary-trends/models"
)

// Run is everything one league scrape produced.
type Run struct {
	ID        string
	League    string
	StartedAt time.Time
	// SalaryColumn is the column the summaries were computed from.
	SalaryColumn string
	Records      []*models.SalaryRecord
	Summaries    []models.YearlySummary
}

// RunStore is the interface any database backend must satisfy.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error
	FetchSummaries(ctx context.Context, league string) ([]models.YearlySummary, error)
	Close() error
}

// SummaryWriter persists per-league output files.
type SummaryWriter interface {
	WriteRecords(path string, records []*models.SalaryRecord) error
	WriteSummary(path string, summaries []models.YearlySummary) error
	WriteForecast(path string, points []models.ForecastPoint) error
}

var (
	_ RunStore      = (*DBWriter)(nil)
	_ SummaryWriter = (*CSVWriter)(nil)
)
