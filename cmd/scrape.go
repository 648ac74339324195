package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salary-trends/metrics"
	"salary-trends/models"
	"salary-trends/report"
	"salary-trends/scraper/htmltable"
	"salary-trends/scraper/spotrac"
	"salary-trends/services"
	"salary-trends/storage"
	"salary-trends/utils"
)

type scrapeOptions struct {
	leagues []string
	years   []int
	delay   time.Duration
	out     string
	engine  string
}

func newScrapeCmd(a *app) *cobra.Command {
	var o scrapeOptions

	c := &cobra.Command{
		Use:   "scrape --league <name> [--years 2021,2022] [--delay 2.5s] [--out DIR]",
		Short: "Scrape the payroll pages of a league and write records, summary and chart.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("years") {
				a.cfg.Years = o.years
			}
			if flags.Changed("delay") {
				a.cfg.RequestDelaySeconds = o.delay.Seconds()
			}
			if flags.Changed("out") {
				a.cfg.OutputDir = o.out
			}
			if flags.Changed("engine") {
				a.cfg.FetchEngine = o.engine
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			leagues := make([]models.League, 0, len(o.leagues))
			for _, name := range o.leagues {
				l, ok := a.cfg.League(name)
				if !ok {
					return fmt.Errorf("unknown league %q (see 'salary-trends leagues')", name)
				}
				leagues = append(leagues, l)
			}

			rec := metrics.NewRecorder()
			defer func() {
				if err := rec.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
					a.logger.Warn("metrics textfile not written", "path", a.cfg.MetricsTextfile, "error", err.Error())
				}
			}()

			for _, l := range leagues {
				if err := a.scrapeLeague(cmd.Context(), cmd.OutOrStdout(), l, rec); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := c.Flags()
	f.StringSliceVar(&o.leagues, "league", nil, "league name or slug, repeatable (nba, mlb, nwsl, ...)")
	f.IntSliceVar(&o.years, "years", nil, "seasons to scrape, e.g. 2021,2022,2023")
	f.DurationVar(&o.delay, "delay", 0, "pause after every request (default from config, 2.5s)")
	f.StringVar(&o.out, "out", "", "output directory (default from config, ./output)")
	f.StringVar(&o.engine, "engine", "", "fetch engine: http or browser")
	_ = c.MarkFlagRequired("league")
	return c
}

// scrapeLeague runs the pipeline for one league and writes its output. A run
// interrupted by ctx still writes what was collected before returning the
// interruption error.
func (a *app) scrapeLeague(ctx context.Context, out io.Writer, league models.League, rec *metrics.Recorder) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	started := time.Now()

	fetcher, closeFetcher, err := a.newFetcher(league, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	pacer, err := utils.NewPacer(a.cfg.Pacing, a.cfg.RequestDelay())
	if err != nil {
		return err
	}

	logger.Info("scraping league", "league", league.Name, "engine", fetcher.Name(),
		"teams", len(league.Teams), "years", a.cfg.Years)

	driver := services.NewDriver(fetcher, htmltable.NewExtractor(), pacer, logger, services.WithMetrics(rec))
	records, runErr := driver.Run(ctx, league.Name, league.Teams, a.cfg.Years)
	if len(records) == 0 {
		return runErr
	}

	agg := services.NewAggregator(logger)
	summaries, err := agg.Summarize(records)
	if err != nil {
		return err
	}
	agg.Print(out, league.Name, summaries)

	writer, err := storage.NewCSVWriter(a.cfg.OutputDir)
	if err != nil {
		return err
	}
	y0, y1 := yearRange(a.cfg.Years)

	recordsPath := writer.RecordsPath(league.Slug, y0, y1)
	if err := writer.WriteRecords(recordsPath, records); err != nil {
		return err
	}
	summaryPath := writer.SummaryPath(league.Slug, y0, y1)
	if err := writer.WriteSummary(summaryPath, summaries); err != nil {
		return err
	}
	saved := []string{recordsPath, summaryPath}

	chartPath := filepath.Join(writer.Dir(), league.Slug+"_salary_trend.png")
	if err := report.TrendChart(chartPath, league.Name, summaries); err != nil {
		logger.Warn("trend chart not written", "path", chartPath, "error", err.Error())
	} else {
		saved = append(saved, chartPath)
	}

	if a.cfg.DBDriver != "" {
		col, _ := services.SalaryColumn(records)
		run := storage.Run{
			ID: runID, League: league.Name, StartedAt: started,
			SalaryColumn: col, Records: records, Summaries: summaries,
		}
		if err := a.saveRun(ctx, run); err != nil {
			return err
		}
		saved = append(saved, a.cfg.DBDriver+" run "+runID)
	}

	fmt.Fprintln(out, "Saved:")
	for _, p := range saved {
		fmt.Fprintln(out, "  "+p)
	}
	logger.Info("league done", "league", league.Name, "records", len(records),
		"seasons", len(summaries), "elapsed", time.Since(started).Round(time.Millisecond))

	return runErr
}

func (a *app) newFetcher(league models.League, logger *utils.Logger) (spotrac.Fetcher, func(), error) {
	urls := spotrac.NewURLTemplate(a.cfg.BaseURL, league.Slug)

	if a.cfg.FetchEngine == "browser" {
		bf, err := spotrac.NewBrowserFetcher(urls, spotrac.BrowserOptions{
			ChromeBin:   a.cfg.ChromeBin,
			UserAgent:   a.cfg.UserAgent,
			Timeout:     a.cfg.RequestTimeout(),
			MaxAttempts: a.cfg.MaxRetries,
			Settle:      2 * time.Second,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return bf, func() { _ = bf.Close() }, nil
	}

	hf := spotrac.NewHTTPFetcher(urls, spotrac.HTTPOptions{
		Timeout:     a.cfg.RequestTimeout(),
		UserAgent:   a.cfg.UserAgent,
		ChromeTLS:   a.cfg.ChromeTLS,
		MaxAttempts: a.cfg.MaxRetries,
	}, logger)
	return hf, func() {}, nil
}

func (a *app) openStore(ctx context.Context) (storage.RunStore, error) {
	return storage.NewDBWriter(ctx, a.cfg.DBDriver, a.cfg.DSN())
}

// saveRun persists run even when ctx was cancelled, so an interrupted
// scrape keeps its prefix in the database too.
func (a *app) saveRun(ctx context.Context, run storage.Run) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, run)
}

func yearRange(years []int) (int, int) {
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}
