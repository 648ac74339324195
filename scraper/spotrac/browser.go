package spotrac

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"salary-trends/utils"
)

// BrowserOptions configures BrowserFetcher.
type BrowserOptions struct {
	ChromeBin   string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	// Settle is how long to wait after the document loads before reading it.
	Settle time.Duration
}

// BrowserFetcher loads payroll pages in headless Chrome. One browser is
// shared by every Fetch; each page gets its own tab.
type BrowserFetcher struct {
	urls     URLTemplate
	opts     BrowserOptions
	logger   *utils.Logger
	retry    *utils.RetryConfig
	browser  context.Context
	cancel   context.CancelFunc
	cancelEA context.CancelFunc
}

// NewBrowserFetcher starts a headless browser. Call Close to stop it.
func NewBrowserFetcher(urls URLTemplate, opts BrowserOptions, logger *utils.Logger) (*BrowserFetcher, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("starting browser", "binary", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so a missing binary fails here, not on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("spotrac: start browser: %w", err)
	}

	return &BrowserFetcher{
		urls:   urls,
		opts:   opts,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		browser:  browserCtx,
		cancel:   cancelBrowser,
		cancelEA: cancelAlloc,
	}, nil
}

func (b *BrowserFetcher) Name() string { return "browser" }

// Fetch navigates to the payroll page and returns the rendered document.
func (b *BrowserFetcher) Fetch(ctx context.Context, team string, year int) (string, error) {
	url := b.urls.URL(team, year)
	b.logger.Info("fetching payroll", "team", team, "year", year, "url", url, "engine", "browser")

	var html string
	err := b.retry.Do(ctx, fmt.Sprintf("fetch %s %d", team, year), func() error {
		tabCtx, cancelTab := chromedp.NewContext(b.browser)
		defer cancelTab()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.Timeout)
		defer cancelTimeout()
		stop := context.AfterFunc(ctx, cancelTimeout)
		defer stop()

		resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
		if err != nil {
			return classifyError(url, err)
		}
		if resp != nil && resp.Status != http.StatusOK {
			return statusError(url, int(resp.Status))
		}

		err = chromedp.Run(tabCtx,
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(b.opts.Settle),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return classifyError(url, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	b.cancel()
	b.cancelEA()
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
