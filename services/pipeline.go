package services

import (
	"context"
	"fmt"
	"time"

	"salary-trends/metrics"
	"salary-trends/models"
	"salary-trends/utils"
)

// PageFetcher returns the payroll page for one team and season.
type PageFetcher interface {
	Fetch(ctx context.Context, team string, year int) (string, error)
}

// TableExtractor picks the salary table out of a page.
type TableExtractor interface {
	Extract(html string) (*models.RawTable, error)
}

// pair is one (team, season) page of a league.
type pair struct {
	team string
	year int
}

// Driver walks every (team, year) pair of a league in order and collects the
// player records of the pairs that succeed.
type Driver struct {
	fetcher    PageFetcher
	extractor  TableExtractor
	normalizer *Normalizer
	pacer      utils.Pacer
	logger     *utils.Logger
	metrics    *metrics.Recorder
}

// DriverOption configures NewDriver.
type DriverOption func(*Driver)

// WithMetrics records pair outcomes on m.
func WithMetrics(m *metrics.Recorder) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

// NewDriver creates a Driver. pacer is waited on after every attempted pair.
func NewDriver(fetcher PageFetcher, extractor TableExtractor, pacer utils.Pacer, logger *utils.Logger, opts ...DriverOption) *Driver {
	d := &Driver{
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: NewNormalizer(logger),
		pacer:      pacer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run attempts teams × years, teams outer. Failed pairs are logged and
// skipped. If ctx is cancelled the records collected so far are returned
// together with the context error. A run that collects no record fails
// with run/no_data.
func (d *Driver) Run(ctx context.Context, league string, teams []string, years []int) ([]*models.SalaryRecord, error) {
	seen := make(map[pair]struct{})
	var out []*models.SalaryRecord
	attempted, succeeded := 0, 0

	log := d.logger.With("league", league)
	log.Info("run started", "teams", len(teams), "years", len(years))

	var stopErr error
loop:
	for _, team := range teams {
		for _, year := range years {
			if err := ctx.Err(); err != nil {
				stopErr = err
				break loop
			}
			if _, dup := seen[pair{team, year}]; dup {
				log.Debug("duplicate pair ignored", "team", team, "year", year)
				continue
			}
			seen[pair{team, year}] = struct{}{}

			attempted++
			d.metrics.PairAttempted(league)
			records, err := d.runPair(ctx, league, team, year)
			switch {
			case err != nil && ctx.Err() != nil:
				stopErr = ctx.Err()
				break loop
			case err != nil:
				log.Failure("pair skipped", err, "team", team, "year", year)
				d.metrics.PairFailed(league, err)
			default:
				succeeded++
				out = append(out, records...)
				d.metrics.Records(league, len(records))
				log.Info("pair collected", "team", team, "year", year, "records", len(records))
			}

			if err := d.pacer.Wait(ctx); err != nil {
				stopErr = err
				break loop
			}
		}
	}

	log.Info("run finished", "attempted", attempted, "succeeded", succeeded, "records", len(out))

	// Pairs whose salary table has no body rows succeed without data.
	if len(out) == 0 {
		return nil, models.NewPipelineError(models.StageRun, models.KindNoData,
			fmt.Sprintf("no records collected for %s (%d pairs attempted, %d succeeded)", league, attempted, succeeded), stopErr)
	}
	d.metrics.MarkSuccess(league, time.Now())
	if stopErr != nil {
		log.Warn("run interrupted, keeping collected prefix", "error", stopErr.Error())
		return out, fmt.Errorf("run interrupted: %w", stopErr)
	}
	return out, nil
}

func (d *Driver) runPair(ctx context.Context, league, team string, year int) ([]*models.SalaryRecord, error) {
	start := time.Now()
	html, err := d.fetcher.Fetch(ctx, team, year)
	d.metrics.ObserveFetch(league, time.Since(start))
	if err != nil {
		return nil, err
	}

	table, err := d.extractor.Extract(html)
	if err != nil {
		return nil, err
	}
	return d.normalizer.Normalize(table, team, year), nil
}
