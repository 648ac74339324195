// Package report renders salary trend and forecast charts as PNG files.
package report

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"salary-trends/models"
)

var (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// TrendChart plots Mean, Median, Q1 and Q3 per year and saves it to path.
// The image format follows the file extension.
func TrendChart(path, league string, summaries []models.YearlySummary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("report: no summaries for %s", league)
	}

	p := newPlot(fmt.Sprintf("%s Player Salary Trend (%s)", league, yearSpan(summaries)), "Salary (USD)")

	series := func(pick func(models.YearlySummary) float64) plotter.XYs {
		xys := make(plotter.XYs, len(summaries))
		for i, s := range summaries {
			xys[i].X = float64(s.Year)
			xys[i].Y = pick(s)
		}
		return xys
	}
	err := plotutil.AddLinePoints(p,
		"Mean", series(func(s models.YearlySummary) float64 { return s.Mean }),
		"Median", series(func(s models.YearlySummary) float64 { return s.Median }),
		"Q1", series(func(s models.YearlySummary) float64 { return s.Q1 }),
		"Q3", series(func(s models.YearlySummary) float64 { return s.Q3 }),
	)
	if err != nil {
		return fmt.Errorf("report: trend lines: %w", err)
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("report: save %q: %w", path, err)
	}
	return nil
}

// ForecastChart plots the observed yearly mean and the projected means as a
// dashed line.
func ForecastChart(path, league string, summaries []models.YearlySummary, forecast []models.ForecastPoint) error {
	if len(summaries) == 0 || len(forecast) == 0 {
		return fmt.Errorf("report: nothing to plot for %s", league)
	}

	last := forecast[len(forecast)-1].Year
	p := newPlot(fmt.Sprintf("%s Salary Forecast (%d–%d)", league, summaries[0].Year, last), "Mean Salary (USD)")

	observed := make(plotter.XYs, len(summaries))
	for i, s := range summaries {
		observed[i].X, observed[i].Y = float64(s.Year), s.Mean
	}
	if err := plotutil.AddLinePoints(p, "Observed Mean", observed); err != nil {
		return fmt.Errorf("report: observed line: %w", err)
	}

	projected := make(plotter.XYs, len(forecast))
	for i, f := range forecast {
		projected[i].X, projected[i].Y = float64(f.Year), f.PredictedMean
	}
	line, err := plotter.NewLine(projected)
	if err != nil {
		return fmt.Errorf("report: forecast line: %w", err)
	}
	line.Color = color.RGBA{R: 220, A: 255}
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	p.Legend.Add("Forecast (OLS)", line)

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("report: save %q: %w", path, err)
	}
	return nil
}

// LeagueSeries is the yearly summaries of one league.
type LeagueSeries struct {
	League    string
	Summaries []models.YearlySummary
}

// ComparisonChart plots the observed yearly mean of several leagues on one
// chart.
func ComparisonChart(path string, series []LeagueSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("report: no leagues to compare")
	}

	names := make([]string, 0, len(series))
	lines := make([]interface{}, 0, 2*len(series))
	first, last := math.MaxInt, math.MinInt
	for _, s := range series {
		if len(s.Summaries) == 0 {
			return fmt.Errorf("report: no summaries for %s", s.League)
		}
		xys := make(plotter.XYs, len(s.Summaries))
		for i, y := range s.Summaries {
			xys[i].X, xys[i].Y = float64(y.Year), y.Mean
			first, last = min(first, y.Year), max(last, y.Year)
		}
		names = append(names, s.League)
		lines = append(lines, s.League+" Mean", xys)
	}

	title := fmt.Sprintf("%s Mean Salary Trend (%d–%d)", strings.Join(names, " vs "), first, last)
	p := newPlot(title, "Mean Salary (USD)")
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("report: comparison lines: %w", err)
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("report: save %q: %w", path, err)
	}
	return nil
}

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Year"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = yearTicks{}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

// yearTicks puts one labelled tick on every whole year.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(min); y <= max; y++ {
		ticks = append(ticks, plot.Tick{Value: y, Label: strconv.Itoa(int(y))})
	}
	return ticks
}

func yearSpan(summaries []models.YearlySummary) string {
	first, last := summaries[0].Year, summaries[len(summaries)-1].Year
	if first == last {
		return strconv.Itoa(first)
	}
	return fmt.Sprintf("%d–%d", first, last)
}
