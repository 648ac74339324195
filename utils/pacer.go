package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Pacer bounds the outbound request rate. The pipeline calls Wait after every
// attempted request.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer sleeps for a constant interval on every Wait.
type FixedPacer struct {
	interval time.Duration
}

// NewFixedPacer creates a FixedPacer. A non-positive interval disables waiting.
func NewFixedPacer(interval time.Duration) *FixedPacer {
	return &FixedPacer{interval: interval}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenPacer spaces request starts at least interval apart using a token
// bucket of size one. Time spent in the request itself counts toward the
// interval, unlike FixedPacer.
type TokenPacer struct {
	limiter *rate.Limiter
}

// NewTokenPacer creates a TokenPacer allowing one request per interval.
func NewTokenPacer(interval time.Duration) *TokenPacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	l := rate.NewLimiter(limit, 1)
	// The first request goes out immediately; Wait after it blocks a full interval.
	l.Allow()
	return &TokenPacer{limiter: l}
}

func (p *TokenPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NewPacer builds the pacer named by kind ("fixed" or "token").
func NewPacer(kind string, interval time.Duration) (Pacer, error) {
	switch strings.ToLower(kind) {
	case "", "fixed":
		return NewFixedPacer(interval), nil
	case "token":
		return NewTokenPacer(interval), nil
	default:
		return nil, fmt.Errorf("unknown pacing policy %q", kind)
	}
}
