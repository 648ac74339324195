package spotrac

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	tls "github.com/refraction-networking/utls"

	"salary-trends/utils"
)

// HTTPOptions configures HTTPFetcher.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	// ChromeTLS dials TLS with a Chrome ClientHello instead of Go's.
	ChromeTLS   bool
	MaxAttempts int
	RetryDelay  time.Duration
}

// HTTPFetcher issues plain GET requests through a transport that passes the
// common Cloudflare browser checks.
type HTTPFetcher struct {
	client *resty.Client
	urls   URLTemplate
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher for the pages described by urls.
func NewHTTPFetcher(urls URLTemplate, opts HTTPOptions, logger *utils.Logger) *HTTPFetcher {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	client := resty.New().
		SetTransport(cloudflarebp.AddCloudFlareByPass(newTransport(opts.ChromeTLS))).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &HTTPFetcher{
		client: client,
		urls:   urls,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   opts.RetryDelay,
			Logger:      logger,
		},
		logger: logger,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch returns the page body. Any status other than 200 is a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, team string, year int) (string, error) {
	url := f.urls.URL(team, year)
	f.logger.Info("fetching payroll", "team", team, "year", year, "url", url)

	var body string
	err := f.retry.Do(ctx, fmt.Sprintf("fetch %s %d", team, year), func() error {
		res, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return classifyError(url, err)
		}
		if res.StatusCode() != http.StatusOK {
			return statusError(url, res.StatusCode())
		}
		body = res.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1, since
// http.Transport cannot speak h2 over a utls connection.
var chromeH1Spec *tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = &spec
}

func newTransport(chromeTLS bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !chromeTLS || chromeH1Spec == nil {
		return transport
	}

	transport.ForceAttemptHTTP2 = false
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{Timeout: 10 * time.Second}
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		host, _, _ := net.SplitHostPort(addr)
		tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(chromeH1Spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("spotrac: apply tls spec: %w", err)
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
	return transport
}
