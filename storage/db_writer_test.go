package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salary-trends/models"
)

func newTestDB(t *testing.T) *DBWriter {
	t.Helper()
	w, err := NewDBWriter(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestDBWriter_SaveAndFetch(t *testing.T) {
	ctx := context.Background()
	w := newTestDB(t)

	first := Run{
		ID: uuid.NewString(), League: "NBA", StartedAt: time.Now(), SalaryColumn: "Salary",
		Records:   sampleRecords(),
		Summaries: []models.YearlySummary{{Year: 2023, Mean: 1, Median: 1, Q1: 1, Q3: 1}},
	}
	second := Run{
		ID: uuid.NewString(), League: "NBA", StartedAt: time.Now(), SalaryColumn: "Salary",
		Records: sampleRecords()[:1],
		Summaries: []models.YearlySummary{
			{Year: 2024, Mean: 20, Median: 19, Q1: 10, Q3: 30},
			{Year: 2023, Mean: 10, Median: 9, Q1: 5, Q3: 15},
		},
	}
	require.NoError(t, w.SaveRun(ctx, first))
	require.NoError(t, w.SaveRun(ctx, second))

	got, err := w.FetchSummaries(ctx, "NBA")
	require.NoError(t, err)
	want := []models.YearlySummary{
		{Year: 2023, Mean: 10, Median: 9, Q1: 5, Q3: 15},
		{Year: 2024, Mean: 20, Median: 19, Q1: 10, Q3: 30},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("latest run summaries (-want +got):\n%s", diff)
	}

	n, err := w.CountRecords(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDBWriter_ManyRecordsBatched(t *testing.T) {
	ctx := context.Background()
	w := newTestDB(t)

	var records []*models.SalaryRecord
	for i := 0; i < 123; i++ {
		records = append(records, &models.SalaryRecord{
			Team: "t", Year: 2021, Columns: []string{"Salary"},
			Values:   map[string]string{"Salary": "$1"},
			Salaries: map[string]*float64{"Salary": ptr(1)},
		})
	}
	run := Run{ID: uuid.NewString(), League: "MLB", StartedAt: time.Now(), SalaryColumn: "Salary", Records: records}
	require.NoError(t, w.SaveRun(ctx, run))

	n, err := w.CountRecords(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 123, n)
}

func TestDBWriter_NoRun(t *testing.T) {
	w := newTestDB(t)
	_, err := w.FetchSummaries(context.Background(), "NWSL")
	assert.True(t, errors.Is(err, ErrNoStoredRun), "got %v", err)
}

func TestDBWriter_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	w := newTestDB(t)

	run := Run{ID: "fixed-id", League: "NBA", StartedAt: time.Now(), SalaryColumn: "Salary", Records: sampleRecords()}
	require.NoError(t, w.SaveRun(ctx, run))
	require.Error(t, w.SaveRun(ctx, run))

	n, err := w.CountRecords(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDialectRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?,?),(?,?)"
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1,$2),($3,$4)", postgresDialect.rebind(q))
}

func TestNewDBWriter_UnknownDriver(t *testing.T) {
	_, err := NewDBWriter(context.Background(), "mysql", "")
	assert.Error(t, err)
}
