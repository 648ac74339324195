package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salary-trends/models"
)

func ptr(v float64) *float64 { return &v }

func sampleRecords() []*models.SalaryRecord {
	return []*models.SalaryRecord{
		{
			Team: "boston-celtics", Year: 2023,
			Columns:  []string{"Player", "Salary"},
			Values:   map[string]string{"Player": "Jayson Tatum", "Salary": "$32,600,060"},
			Salaries: map[string]*float64{"Salary": ptr(32600060)},
		},
		{
			Team: "boston-celtics", Year: 2024,
			Columns:  []string{"Player", "Pos", "Salary"},
			Values:   map[string]string{"Player": "Two, Way", "Pos": "G", "Salary": "N/A"},
			Salaries: map[string]*float64{"Salary": nil},
		},
	}
}

func TestCSVWriter_Paths(t *testing.T) {
	w, err := NewCSVWriter(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "nba_all_players_2021_2025.csv", filepath.Base(w.RecordsPath("NBA", 2021, 2025)))
	assert.Equal(t, "mlb_salary_summary_2021_2025.csv", filepath.Base(w.SummaryPath("mlb", 2021, 2025)))
	assert.Equal(t, "salary_forecast_2026_2028.csv", filepath.Base(w.ForecastPath(2026, 2028)))
}

func TestCSVWriter_WriteRecords(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	path := w.RecordsPath("nba", 2023, 2024)
	require.NoError(t, w.WriteRecords(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), utf8BOM), "file must start with a BOM")

	want := "Player,Salary,Pos,Team,Year\n" +
		"Jayson Tatum,32600060,,boston-celtics,2023\n" +
		"\"Two, Way\",,G,boston-celtics,2024\n"
	if diff := cmp.Diff(want, strings.TrimPrefix(string(data), utf8BOM)); diff != "" {
		t.Errorf("records csv mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriter_SummaryRoundTrip(t *testing.T) {
	w, err := NewCSVWriter(t.TempDir())
	require.NoError(t, err)

	summaries := []models.YearlySummary{
		{Year: 2021, Mean: 25, Median: 25, Q1: 17.5, Q3: 32.5},
		{Year: 2022, Mean: 1234567.5, Median: 1000000, Q1: 900000, Q3: 2000000},
	}
	path := w.SummaryPath("nba", 2021, 2022)
	require.NoError(t, w.WriteSummary(path, summaries))

	got, err := ReadSummaryFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(summaries, got); diff != "" {
		t.Errorf("summary round trip (-want +got):\n%s", diff)
	}
}

func TestCSVWriter_WriteForecast(t *testing.T) {
	w, err := NewCSVWriter(t.TempDir())
	require.NoError(t, err)

	path := w.ForecastPath(2024, 2025)
	require.NoError(t, w.WriteForecast(path, []models.ForecastPoint{
		{Year: 2024, PredictedMean: 130, League: "NBA"},
		{Year: 2025, PredictedMean: 140.25, League: "MLB"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM+"Year,Predicted_Mean,League\n2024,130,NBA\n2025,140.25,MLB\n", string(data))
}

func TestCSVWriter_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteSummary(w.SummaryPath("nwsl", 2021, 2021), nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nwsl_salary_summary_2021_2021.csv", entries[0].Name())
}
