package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"salary-trends/models"
	"salary-trends/report"
	"salary-trends/services"
	"salary-trends/storage"
)

type forecastOptions struct {
	inputs  []string
	horizon int
	fromDB  bool
	leagues []string
	out     string
}

// summarySource yields the persisted yearly summaries of one league.
type summarySource struct {
	league string
	slug   string
	origin string
	load   func(ctx context.Context) ([]models.YearlySummary, error)
}

func newForecastCmd(a *app) *cobra.Command {
	var o forecastOptions

	c := &cobra.Command{
		Use:   "forecast [--input nba=PATH ...] [--horizon 3] [--from-db --league nba ...]",
		Short: "Fit a linear trend to persisted yearly means and project the next seasons.",
		Long: "Reads yearly summaries written by scrape, either from summary CSV files or from the\n" +
			"configured database, fits Mean = a + b*Year per league and prints the projections.\n" +
			"Without --input or --from-db every league with a summary file in the output\n" +
			"directory is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("horizon") {
				a.cfg.ForecastHorizon = o.horizon
			}
			if flags.Changed("out") {
				a.cfg.OutputDir = o.out
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			sources, err := a.forecastSources(cmd.Context(), o)
			if err != nil {
				return err
			}
			return a.forecast(cmd, sources)
		},
	}

	f := c.Flags()
	f.StringArrayVar(&o.inputs, "input", nil, "league=path of a summary CSV, repeatable")
	f.IntVar(&o.horizon, "horizon", 0, "seasons to project past the last observed one (default from config, 3)")
	f.BoolVar(&o.fromDB, "from-db", false, "read summaries of the latest stored run instead of CSV files")
	f.StringSliceVar(&o.leagues, "league", nil, "leagues to read with --from-db (default: all)")
	f.StringVar(&o.out, "out", "", "output directory (default from config, ./output)")
	c.MarkFlagsMutuallyExclusive("input", "from-db")
	return c
}

func (a *app) forecast(cmd *cobra.Command, sources []summarySource) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fc := services.NewForecaster(a.logger)

	writer, err := storage.NewCSVWriter(a.cfg.OutputDir)
	if err != nil {
		return err
	}

	var all []models.ForecastPoint
	var series []report.LeagueSeries
	for _, src := range sources {
		summaries, err := src.load(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("summaries loaded", "league", src.league, "from", src.origin, "seasons", len(summaries))

		points, fit, err := fc.Forecast(src.league, summaries, a.cfg.ForecastHorizon)
		if err != nil {
			return err
		}
		fc.PrintFit(out, fit)

		chartPath := filepath.Join(writer.Dir(), src.slug+"_salary_forecast.png")
		if err := report.ForecastChart(chartPath, src.league, summaries, points); err != nil {
			a.logger.Warn("forecast chart not written", "path", chartPath, "error", err.Error())
		}
		all = append(all, points...)
		series = append(series, report.LeagueSeries{League: src.league, Summaries: summaries})
	}

	var saved []string
	if len(series) > 1 {
		chartPath := filepath.Join(writer.Dir(), "salary_comparison.png")
		if err := report.ComparisonChart(chartPath, series); err != nil {
			a.logger.Warn("comparison chart not written", "path", chartPath, "error", err.Error())
		} else {
			saved = append(saved, chartPath)
		}
	}

	fc.PrintForecast(out, all)

	first, last := all[0].Year, all[0].Year
	for _, p := range all {
		first, last = min(first, p.Year), max(last, p.Year)
	}
	path := writer.ForecastPath(first, last)
	if err := writer.WriteForecast(path, all); err != nil {
		return err
	}
	saved = append(saved, path)
	fmt.Fprintln(out, "Saved:")
	for _, p := range saved {
		fmt.Fprintln(out, "  "+p)
	}
	return nil
}

func (a *app) forecastSources(ctx context.Context, o forecastOptions) ([]summarySource, error) {
	switch {
	case o.fromDB:
		return a.dbSources(ctx, o.leagues)
	case len(o.inputs) > 0:
		return a.fileSources(o.inputs)
	default:
		return a.defaultSources()
	}
}

func (a *app) fileSources(inputs []string) ([]summarySource, error) {
	sources := make([]summarySource, 0, len(inputs))
	for _, in := range inputs {
		name, path, ok := strings.Cut(in, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("--input %q: want league=path", in)
		}
		sources = append(sources, a.fileSource(name, path))
	}
	return sources, nil
}

func (a *app) fileSource(name, path string) summarySource {
	league, slug := strings.ToUpper(name), strings.ToLower(name)
	if l, ok := a.cfg.League(name); ok {
		league, slug = l.Name, l.Slug
	}
	return summarySource{
		league: league,
		slug:   slug,
		origin: path,
		load: func(context.Context) ([]models.YearlySummary, error) {
			return storage.ReadSummaryFile(path)
		},
	}
}

// defaultSources picks up the summary file of every configured league that
// has one in the output directory for the configured years.
func (a *app) defaultSources() ([]summarySource, error) {
	writer, err := storage.NewCSVWriter(a.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	y0, y1 := yearRange(a.cfg.Years)

	var sources []summarySource
	for _, l := range a.cfg.Leagues {
		path := writer.SummaryPath(l.Slug, y0, y1)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		sources = append(sources, a.fileSource(l.Name, path))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no summary files for %d–%d in %s; run scrape first or pass --input", y0, y1, writer.Dir())
	}
	return sources, nil
}

func (a *app) dbSources(ctx context.Context, names []string) ([]summarySource, error) {
	if a.cfg.DBDriver == "" {
		return nil, errors.New("--from-db needs SALARY_DB_DRIVER (postgres or sqlite)")
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	explicit := len(names) > 0
	var leagues []models.League
	if explicit {
		for _, n := range names {
			l, ok := a.cfg.League(n)
			if !ok {
				return nil, fmt.Errorf("unknown league %q (see 'salary-trends leagues')", n)
			}
			leagues = append(leagues, l)
		}
	} else {
		leagues = a.cfg.Leagues
	}

	var sources []summarySource
	for _, l := range leagues {
		summaries, err := store.FetchSummaries(ctx, l.Name)
		if errors.Is(err, storage.ErrNoStoredRun) && !explicit {
			continue
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, summarySource{
			league: l.Name,
			slug:   l.Slug,
			origin: a.cfg.DBDriver,
			load: func(context.Context) ([]models.YearlySummary, error) {
				return summaries, nil
			},
		})
	}
	if len(sources) == 0 {
		return nil, errors.New("no stored runs found; run scrape with a database configured first")
	}
	return sources, nil
}
