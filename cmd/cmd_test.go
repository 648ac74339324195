package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salary-trends/config"
	"salary-trends/models"
)

// payrollServer serves one salary table per page. Every player earns
// year-2020 hundred dollars, so season means grow by 100 a year.
func payrollServer(t *testing.T, missing func(path string) bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if missing != nil && missing(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		var year int
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		_, _ = fmt.Sscanf(parts[len(parts)-1], "%d", &year)
		fmt.Fprintf(w, `<html><body><table>
			<thead><tr><th>Player</th><th>Base Salary</th></tr></thead>
			<tbody>
			<tr><td>A</td><td>$%d00</td></tr>
			<tr><td>B</td><td>-</td></tr>
			</tbody></table></body></html>`, year-2020)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SALARY_CONFIG", "")
	t.Setenv("SALARY_BASE_URL", baseURL)
	t.Setenv("SALARY_LOG_LEVEL", "warn")
	return dir
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestLeaguesCommand(t *testing.T) {
	setupEnv(t, "http://unused")
	out, err := run(t, context.Background(), "leagues")
	require.NoError(t, err)
	for _, l := range config.DefaultLeagues() {
		assert.Contains(t, out, l.Name)
		for _, team := range l.Teams {
			assert.Contains(t, out, team)
		}
	}
}

func TestScrapeThenForecast(t *testing.T) {
	srv := payrollServer(t, func(path string) bool {
		return strings.Contains(path, "/ny-nj-gotham-fc/")
	})
	dir := setupEnv(t, srv.URL)
	t.Setenv("SALARY_DB_DRIVER", "sqlite")
	t.Setenv("SALARY_DB_DSN", filepath.Join(dir, "salary.db"))
	t.Setenv("SALARY_METRICS_TEXTFILE", filepath.Join(dir, "salary.prom"))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, context.Background(),
		"scrape", "--league", "nwsl", "--years", "2021,2022,2023", "--delay", "0s", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "NWSL Salary Summary")
	assert.Contains(t, out, "Saved:")

	for _, name := range []string{
		"nwsl_all_players_2021_2023.csv",
		"nwsl_salary_summary_2021_2023.csv",
		"nwsl_salary_trend.png",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	prom, err := os.ReadFile(filepath.Join(dir, "salary.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `salary_trends_pairs_failed_total{kind="status",league="NWSL",stage="fetch"} 3`)

	out, err = run(t, context.Background(),
		"forecast", "--from-db", "--league", "nwsl", "--horizon", "2", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Forecast Summary")

	data, err := os.ReadFile(filepath.Join(outDir, "salary_forecast_2024_2025.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\ufeffYear,Predicted_Mean,League\n2024,400,NWSL\n2025,500,NWSL\n", string(data))
}

func TestForecastFromCSVInput(t *testing.T) {
	dir := setupEnv(t, "http://unused")
	input := filepath.Join(dir, "nba_salary_summary_2021_2023.csv")
	require.NoError(t, os.WriteFile(input,
		[]byte("\ufeffyear,mean,median,q1,q3\n2021,100,1,1,1\n2022,110,1,1,1\n2023,120,1,1,1\n"), 0o644))

	out, err := run(t, context.Background(), "forecast", "--input", "nba="+input, "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "NBA")

	data, err := os.ReadFile(filepath.Join(dir, "salary_forecast_2024_2026.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\ufeffYear,Predicted_Mean,League\n2024,130,NBA\n2025,140,NBA\n2026,150,NBA\n", string(data))
}

func TestForecastComparesLeagues(t *testing.T) {
	dir := setupEnv(t, "http://unused")
	nba := filepath.Join(dir, "nba.csv")
	mlb := filepath.Join(dir, "mlb.csv")
	require.NoError(t, os.WriteFile(nba, []byte("Year,Mean\n2021,100\n2022,110\n2023,120\n"), 0o644))
	require.NoError(t, os.WriteFile(mlb, []byte("Year,Mean\n2021,50\n2022,70\n2023,90\n"), 0o644))

	out, err := run(t, context.Background(),
		"forecast", "--input", "nba="+nba, "--input", "mlb="+mlb, "--horizon", "1", "--out", dir)
	require.NoError(t, err)

	chart := filepath.Join(dir, "salary_comparison.png")
	assert.Contains(t, out, chart)
	_, err = os.Stat(chart)
	assert.NoError(t, err)
	for _, name := range []string{"nba_salary_forecast.png", "mlb_salary_forecast.png", "salary_forecast_2024_2024.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestForecast_InsufficientPoints(t *testing.T) {
	dir := setupEnv(t, "http://unused")
	input := filepath.Join(dir, "mlb.csv")
	require.NoError(t, os.WriteFile(input, []byte("Year,Mean\n2021,100\n"), 0o644))

	_, err := run(t, context.Background(), "forecast", "--input", "mlb="+input, "--out", dir)
	assert.True(t, errors.Is(err, models.ErrInsufficientPoints), "got %v", err)
}

func TestScrape_NoData(t *testing.T) {
	srv := payrollServer(t, func(string) bool { return true })
	dir := setupEnv(t, srv.URL)
	outDir := filepath.Join(dir, "out")

	_, err := run(t, context.Background(),
		"scrape", "--league", "nwsl", "--years", "2021", "--delay", "0s", "--out", outDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoData), "got %v", err)

	_, statErr := os.Stat(filepath.Join(outDir, "nwsl_salary_summary_2021_2021.csv"))
	assert.True(t, os.IsNotExist(statErr), "no summary may be written for a failed run")
}

func TestScrape_HeaderOnlyTablesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<table><thead><tr><th>Player</th><th>Salary</th></tr></thead><tbody></tbody></table>`)
	}))
	t.Cleanup(srv.Close)
	dir := setupEnv(t, srv.URL)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, context.Background(),
		"scrape", "--league", "nwsl", "--years", "2021", "--delay", "0s", "--out", outDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoData), "got %v", err)
	assert.Empty(t, out)

	entries, _ := os.ReadDir(outDir)
	assert.Empty(t, entries)
}

func TestScrape_UnknownLeague(t *testing.T) {
	setupEnv(t, "http://unused")
	_, err := run(t, context.Background(), "scrape", "--league", "nhl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown league")
}

func TestYearRange(t *testing.T) {
	lo, hi := yearRange([]int{2023, 2021, 2025, 2022})
	assert.Equal(t, 2021, lo)
	assert.Equal(t, 2025, hi)
}
