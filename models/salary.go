package models

import "strings"

// League describes one scrape target: its display name, the URL path
// fragment on the source site and the team slugs to visit.
type League struct {
	Name  string   `koanf:"name"`
	Slug  string   `koanf:"slug"`
	Teams []string `koanf:"teams"`
}

// RawTable is one HTML table as parsed from a payroll page.
// Rows are keyed by column name; Columns keeps the left-to-right order.
type RawTable struct {
	Columns []string
	Rows    []map[string]string
}

// SalaryColumns returns every column whose name looks like a salary column,
// in table order.
func (t *RawTable) SalaryColumns() []string {
	return SalaryColumnsOf(t.Columns)
}

// SalaryRecord is one normalized table row tagged with its provenance.
// It is produced by the normalizer and never modified afterwards.
type SalaryRecord struct {
	Team    string
	Year    int
	Columns []string
	Values  map[string]string
	// Salaries holds the cleaned value of every salary-like column.
	// A nil entry means the cell could not be parsed.
	Salaries map[string]*float64
}

// Salary returns the cleaned value of column col and whether it is present.
func (r *SalaryRecord) Salary(col string) (float64, bool) {
	v, ok := r.Salaries[col]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// YearlySummary holds the salary distribution for one season.
type YearlySummary struct {
	Year   int
	Mean   float64
	Median float64
	Q1     float64
	Q3     float64
}

// ForecastPoint is one projected season.
type ForecastPoint struct {
	Year          int
	PredictedMean float64
	League        string
}

// IsSalaryColumn applies the salary-header heuristic.
func IsSalaryColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "salary")
}

// SalaryColumnsOf filters names down to salary-like columns, keeping order.
func SalaryColumnsOf(names []string) []string {
	var out []string
	for _, n := range names {
		if IsSalaryColumn(n) {
			out = append(out, n)
		}
	}
	return out
}

// UnionColumns returns the columns of all records in first-appearance order.
func UnionColumns(records []*SalaryRecord) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range records {
		for _, c := range r.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}
