package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"

	"salary-trends/models"
	"salary-trends/utils"
)

// Fit is an ordinary least squares line Mean = Intercept + Slope*Year.
type Fit struct {
	League    string
	Intercept float64
	Slope     float64
	RSquared  float64
	N         int
}

// Predict evaluates the fitted line at year.
func (f Fit) Predict(year int) float64 {
	return f.Intercept + f.Slope*float64(year)
}

// Forecaster projects yearly mean salaries forward with a linear trend.
type Forecaster struct {
	logger *utils.Logger
}

func NewForecaster(logger *utils.Logger) *Forecaster {
	return &Forecaster{logger: logger}
}

// Forecast fits Mean against Year over summaries and returns predictions for
// the horizon years following the last observed year. At least two distinct
// years and a horizon of at least one year are required.
func (fc *Forecaster) Forecast(league string, summaries []models.YearlySummary, horizon int) ([]models.ForecastPoint, Fit, error) {
	if horizon < 1 {
		return nil, Fit{}, models.NewPipelineError(models.StageForecast, models.KindInvalidHorizon,
			fmt.Sprintf("%s: horizon must be at least 1, got %d", league, horizon), nil)
	}

	sorted := append([]models.YearlySummary(nil), summaries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	distinct := make(map[int]struct{}, len(sorted))
	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, s := range sorted {
		distinct[s.Year] = struct{}{}
		xs[i] = float64(s.Year)
		ys[i] = s.Mean
	}
	if len(distinct) < 2 {
		return nil, Fit{}, models.NewPipelineError(models.StageForecast, models.KindInsufficientPoints,
			fmt.Sprintf("%s: need at least 2 distinct years for a trend, found %d", league, len(distinct)), nil)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	fit := Fit{
		League:    league,
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		N:         len(xs),
	}

	last := sorted[len(sorted)-1].Year
	points := make([]models.ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		year := last + i
		points = append(points, models.ForecastPoint{
			Year:          year,
			PredictedMean: fit.Predict(year),
			League:        league,
		})
	}

	fc.logger.Info("fitted salary trend",
		"league", league,
		"slope", fit.Slope,
		"intercept", fit.Intercept,
		"r_squared", fit.RSquared,
		"n", fit.N)
	return points, fit, nil
}

// PrintFit renders the regression summary of one league.
func (fc *Forecaster) PrintFit(w io.Writer, fit Fit) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s Regression Summary", strings.ToUpper(fit.League)))
	t.AppendRows([]table.Row{
		{"Observations", fit.N},
		{"Intercept", fmt.Sprintf("%.4f", fit.Intercept)},
		{"Slope (per year)", fmt.Sprintf("%.4f", fit.Slope)},
		{"R²", fmt.Sprintf("%.4f", fit.RSquared)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintForecast renders forecast points of one or more leagues.
func (fc *Forecaster) PrintForecast(w io.Writer, points []models.ForecastPoint) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Forecast Summary")
	t.AppendHeader(table.Row{"Year", "Predicted Mean", "League"})
	for _, p := range points {
		t.AppendRow(table.Row{p.Year, usd(p.PredictedMean), p.League})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
