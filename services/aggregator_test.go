package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salary-trends/models"
)

func f(v float64) *float64 { return &v }

func record(team string, year int, col string, salary *float64) *models.SalaryRecord {
	return &models.SalaryRecord{
		Team:     team,
		Year:     year,
		Columns:  []string{"Player", col},
		Values:   map[string]string{"Player": team + "-player", col: ""},
		Salaries: map[string]*float64{col: salary},
	}
}

func sampleRecords() []*models.SalaryRecord {
	return []*models.SalaryRecord{
		record("a", 2022, "Base Salary", f(10)),
		record("a", 2022, "Base Salary", f(20)),
		record("b", 2022, "Base Salary", f(30)),
		record("b", 2022, "Base Salary", f(40)),
		record("a", 2021, "Base Salary", f(5)),
		record("b", 2021, "Base Salary", nil),
	}
}

func TestSummarizeQuartiles(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	summaries, err := agg.Summarize(sampleRecords())
	require.NoError(t, err)

	want := []models.YearlySummary{
		{Year: 2021, Mean: 5, Median: 5, Q1: 5, Q3: 5},
		{Year: 2022, Mean: 25, Median: 25, Q1: 17.5, Q3: 32.5},
	}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Fatalf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	records := sampleRecords()

	first, err := agg.Summarize(records)
	require.NoError(t, err)
	second, err := agg.Summarize(records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, records, 6, "input must not be filtered in place")
}

func TestSummarizeUsesFirstSalaryColumnOnly(t *testing.T) {
	r := &models.SalaryRecord{
		Team:     "a",
		Year:     2023,
		Columns:  []string{"Player", "Base Salary", "Cash Salary"},
		Salaries: map[string]*float64{"Base Salary": f(100), "Cash Salary": f(999)},
	}
	agg := NewAggregator(newTestLogger())
	summaries, err := agg.Summarize([]*models.SalaryRecord{r})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 100.0, summaries[0].Mean)
}

func TestSummarizeAllNull(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	records := []*models.SalaryRecord{
		record("a", 2021, "Salary", nil),
		record("b", 2022, "Salary", nil),
	}

	summaries, err := agg.Summarize(records)
	assert.Nil(t, summaries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyAfterFilter), "got %v", err)
}

func TestSummarizeNoSalaryColumn(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	records := []*models.SalaryRecord{{
		Team:    "a",
		Year:    2021,
		Columns: []string{"Player", "Cap Hit"},
		Values:  map[string]string{"Player": "x", "Cap Hit": "$1"},
	}}

	_, err := agg.Summarize(records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoSalaryColumn), "got %v", err)
	assert.Contains(t, err.Error(), "Cap Hit")
}

func TestSummarizeEmptyInput(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	_, err := agg.Summarize(nil)
	assert.True(t, errors.Is(err, models.ErrNoSalaryColumn), "got %v", err)
}

func TestQuantile(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.25, 17.5},
		{0.5, 25},
		{0.75, 32.5},
		{1, 40},
	}
	for _, tt := range tests {
		if got := Quantile(values, tt.p); got != tt.want {
			t.Errorf("Quantile(%v, %v) = %v; want %v", values, tt.p, got, tt.want)
		}
	}
}

func TestSalaryColumnAcrossHeterogeneousTables(t *testing.T) {
	records := []*models.SalaryRecord{
		{Columns: []string{"Player", "Cap Hit"}},
		{Columns: []string{"Player", "Signed Salary", "Base Salary"}},
	}
	col, ok := SalaryColumn(records)
	require.True(t, ok)
	assert.Equal(t, "Signed Salary", col)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(newTestLogger())
	agg.Print(&buf, "nba", []models.YearlySummary{
		{Year: 2021, Mean: 1234567.4, Median: 1000000, Q1: 500000, Q3: 2000000},
	})
	out := buf.String()
	assert.Contains(t, out, "NBA Salary Summary")
	assert.Contains(t, out, "$1,234,567")
	assert.Contains(t, out, "2021")
}

func TestUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1234567, "$1,234,567"},
		{32600060.4, "$32,600,060"},
		{1499.5, "$1,500"},
		{-2500, "-$2,500"},
	}
	for _, tt := range tests {
		if got := usd(tt.in); got != tt.want {
			t.Errorf("usd(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
