package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"salary-trends/models"
	"salary-trends/utils"
)

// Aggregator computes yearly salary summaries. It holds no state between
// calls; summarizing the same records twice yields the same result.
type Aggregator struct {
	logger *utils.Logger
}

func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Columns returns the union of record columns in first-appearance order.
func Columns(records []*models.SalaryRecord) []string {
	return models.UnionColumns(records)
}

// SalaryColumn picks the column aggregation runs on: the first salary-like
// column across all records. Other salary columns stay in the records but
// are not aggregated.
func SalaryColumn(records []*models.SalaryRecord) (string, bool) {
	cols := models.SalaryColumnsOf(Columns(records))
	if len(cols) == 0 {
		return "", false
	}
	return cols[0], true
}

// Summarize drops records without a designated salary value, groups the rest
// by year and returns one summary per year in ascending order.
func (a *Aggregator) Summarize(records []*models.SalaryRecord) ([]models.YearlySummary, error) {
	col, ok := SalaryColumn(records)
	if !ok {
		available := append(Columns(records), "Team", "Year")
		return nil, models.NewPipelineError(models.StageAggregate, models.KindNoSalaryColumn,
			fmt.Sprintf("expected a column containing \"salary\", available columns: %s",
				strings.Join(available, ", ")), nil)
	}

	byYear := make(map[int][]float64)
	for _, r := range records {
		if v, ok := r.Salary(col); ok {
			byYear[r.Year] = append(byYear[r.Year], v)
		}
	}
	if len(byYear) == 0 {
		return nil, models.NewPipelineError(models.StageAggregate, models.KindEmptyAfterFilter,
			fmt.Sprintf("all %d values of %q are null", len(records), col), nil)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	summaries := make([]models.YearlySummary, 0, len(years))
	kept := 0
	for _, y := range years {
		values := byYear[y]
		kept += len(values)
		summaries = append(summaries, Summary(y, values))
	}

	a.logger.Info("aggregated salaries",
		"column", col,
		"records", len(records),
		"kept", kept,
		"dropped", len(records)-kept,
		"years", len(summaries))
	return summaries, nil
}

// Summary computes the statistics of one year's salary values.
func Summary(year int, values []float64) models.YearlySummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.YearlySummary{
		Year:   year,
		Mean:   stat.Mean(sorted, nil),
		Median: Quantile(sorted, 0.5),
		Q1:     Quantile(sorted, 0.25),
		Q3:     Quantile(sorted, 0.75),
	}
}

// Quantile returns the p-quantile of sorted using linear interpolation
// between order statistics: h = (n-1)p, x[floor(h)] + frac(h)*(x[floor(h)+1]-x[floor(h)]).
// sorted must be in ascending order and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Print renders summaries as a table.
func (a *Aggregator) Print(w io.Writer, league string, summaries []models.YearlySummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if len(summaries) > 0 {
		t.SetTitle(fmt.Sprintf("%s Salary Summary (%d–%d)",
			strings.ToUpper(league), summaries[0].Year, summaries[len(summaries)-1].Year))
	}
	t.AppendHeader(table.Row{"Year", "Mean", "Median", "Q1", "Q3"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Year, usd(s.Mean), usd(s.Median), usd(s.Q1), usd(s.Q3)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// usd formats v as whole dollars with thousands separators.
func usd(v float64) string {
	s := humanize.Comma(int64(math.Round(math.Abs(v))))
	if v < 0 {
		return "-$" + s
	}
	return "$" + s
}
