package spotrac

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salary-trends/models"
	"salary-trends/utils"
)

func quietLogger() *utils.Logger {
	return utils.NewLogger(utils.WithOutput(io.Discard))
}

func TestURLTemplate(t *testing.T) {
	tests := []struct {
		base, league, team string
		year               int
		want               string
	}{
		{"https://www.spotrac.com", "nba", "boston-celtics", 2023,
			"https://www.spotrac.com/nba/boston-celtics/payroll/_/year/2023/"},
		{"http://localhost:8080/", "nwsl", "gotham-fc", 2021,
			"http://localhost:8080/nwsl/gotham-fc/payroll/_/year/2021/"},
		{"", "mlb", "chicago-cubs", 2025,
			"https://www.spotrac.com/mlb/chicago-cubs/payroll/_/year/2025/"},
	}
	for _, tt := range tests {
		got := NewURLTemplate(tt.base, tt.league).URL(tt.team, tt.year)
		if got != tt.want {
			t.Errorf("URL(%q, %d) = %q, want %q", tt.team, tt.year, got, tt.want)
		}
	}
}

func TestHTTPFetcher_OK(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, "<html><table></table></html>")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(NewURLTemplate(srv.URL, "nba"),
		HTTPOptions{Timeout: 5 * time.Second, UserAgent: "salary-test/1.0"}, quietLogger())

	body, err := f.Fetch(context.Background(), "boston-celtics", 2023)
	require.NoError(t, err)
	assert.Equal(t, "<html><table></table></html>", body)
	assert.Equal(t, "/nba/boston-celtics/payroll/_/year/2023/", gotPath)
	assert.Equal(t, "salary-test/1.0", gotUA)
}

func TestHTTPFetcher_Status(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(NewURLTemplate(srv.URL, "nba"),
		HTTPOptions{Timeout: 5 * time.Second, MaxAttempts: 3, RetryDelay: time.Millisecond}, quietLogger())

	_, err := f.Fetch(context.Background(), "nowhere", 2023)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStatus))

	var pe *models.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
	assert.Equal(t, 1, calls, "404 must not be retried")
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(NewURLTemplate(srv.URL, "mlb"),
		HTTPOptions{Timeout: 5 * time.Second, MaxAttempts: 2, RetryDelay: time.Millisecond}, quietLogger())

	body, err := f.Fetch(context.Background(), "chicago-cubs", 2022)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, 2, calls)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewHTTPFetcher(NewURLTemplate(srv.URL, "nba"),
		HTTPOptions{Timeout: 50 * time.Millisecond}, quietLogger())

	_, err := f.Fetch(context.Background(), "slow-team", 2023)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTimeout), "got %v", err)
}

func TestHTTPFetcher_Network(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(NewURLTemplate(url, "nba"),
		HTTPOptions{Timeout: time.Second}, quietLogger())

	_, err := f.Fetch(context.Background(), "gone", 2023)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNetwork), "got %v", err)
}

func TestNewTransport_ChromeTLS(t *testing.T) {
	plain := newTransport(false)
	assert.Nil(t, plain.DialTLSContext)

	chrome := newTransport(true)
	if chromeH1Spec == nil {
		t.Skip("utls has no Chrome spec")
	}
	assert.NotNil(t, chrome.DialTLSContext)
	assert.False(t, chrome.ForceAttemptHTTP2)
}
