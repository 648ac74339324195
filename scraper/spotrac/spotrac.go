// Package spotrac fetches team payroll pages.
package spotrac

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"salary-trends/models"
)

// DefaultBaseURL is the public site payroll pages are read from.
const DefaultBaseURL = "https://www.spotrac.com"

// Fetcher retrieves the payroll page of one team for one season.
// Failures are *models.PipelineError values of stage fetch.
type Fetcher interface {
	Fetch(ctx context.Context, team string, year int) (string, error)
	Name() string
}

// URLTemplate builds {base}/{league}/{team}/payroll/_/year/{year}/ URLs.
type URLTemplate struct {
	Base   string
	League string
}

// NewURLTemplate creates a template for league, falling back to DefaultBaseURL.
func NewURLTemplate(base, league string) URLTemplate {
	if base == "" {
		base = DefaultBaseURL
	}
	return URLTemplate{Base: strings.TrimRight(base, "/"), League: league}
}

func (u URLTemplate) URL(team string, year int) string {
	return fmt.Sprintf("%s/%s/%s/payroll/_/year/%d/", u.Base, u.League, team, year)
}

// classifyError maps a transport error to a timeout or network failure.
func classifyError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewPipelineError(models.StageFetch, models.KindTimeout, "GET "+url, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.NewPipelineError(models.StageFetch, models.KindTimeout, "GET "+url, err)
	}
	return models.NewPipelineError(models.StageFetch, models.KindNetwork, "GET "+url, err)
}

func statusError(url string, code int) error {
	return &models.PipelineError{
		Stage:      models.StageFetch,
		Kind:       models.KindStatus,
		Message:    fmt.Sprintf("GET %s: status=%d", url, code),
		StatusCode: code,
	}
}
