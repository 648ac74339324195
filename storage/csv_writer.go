package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"salary-trends/models"
)

// utf8BOM lets spreadsheet tools detect the encoding of the written files.
const utf8BOM = "\ufeff"

// CSVWriter writes run output into one directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates dir if needed and returns a writer for it.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Dir is the output directory.
func (c *CSVWriter) Dir() string { return c.dir }

// RecordsPath is <dir>/<league>_all_players_<y0>_<y1>.csv.
func (c *CSVWriter) RecordsPath(league string, y0, y1 int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_all_players_%d_%d.csv", fileKey(league), y0, y1))
}

// SummaryPath is <dir>/<league>_salary_summary_<y0>_<y1>.csv.
func (c *CSVWriter) SummaryPath(league string, y0, y1 int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_salary_summary_%d_%d.csv", fileKey(league), y0, y1))
}

// ForecastPath is <dir>/salary_forecast_<y0>_<y1>.csv.
func (c *CSVWriter) ForecastPath(y0, y1 int) string {
	return filepath.Join(c.dir, fmt.Sprintf("salary_forecast_%d_%d.csv", y0, y1))
}

// WriteRecords writes one row per record. Columns are the union of record
// columns followed by Team and Year; salary columns hold cleaned numbers and
// are empty when the cell could not be parsed.
func (c *CSVWriter) WriteRecords(path string, records []*models.SalaryRecord) error {
	cols := models.UnionColumns(records)
	header := append(append([]string{}, cols...), "Team", "Year")

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, 0, len(header))
		for _, col := range cols {
			if models.IsSalaryColumn(col) {
				if v, ok := r.Salary(col); ok {
					row = append(row, formatFloat(v))
				} else {
					row = append(row, "")
				}
				continue
			}
			row = append(row, r.Values[col])
		}
		row = append(row, r.Team, strconv.Itoa(r.Year))
		rows = append(rows, row)
	}
	return writeCSV(path, header, rows)
}

// WriteSummary writes Year,Mean,Median,Q1,Q3 rows.
func (c *CSVWriter) WriteSummary(path string, summaries []models.YearlySummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.Itoa(s.Year), formatFloat(s.Mean), formatFloat(s.Median), formatFloat(s.Q1), formatFloat(s.Q3),
		})
	}
	return writeCSV(path, summaryHeader, rows)
}

// WriteForecast writes Year,Predicted_Mean,League rows.
func (c *CSVWriter) WriteForecast(path string, points []models.ForecastPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{strconv.Itoa(p.Year), formatFloat(p.PredictedMean), p.League})
	}
	return writeCSV(path, []string{"Year", "Predicted_Mean", "League"}, rows)
}

var summaryHeader = []string{"Year", "Mean", "Median", "Q1", "Q3"}

// writeCSV writes to a temp file in the same directory and renames it into
// place, so a failed write never leaves a truncated file behind.
func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.csv")
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.WriteString(utf8BOM); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("csv: rename into %q: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fileKey(league string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(league), " ", "_"))
}
