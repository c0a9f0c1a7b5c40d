// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between calls to one upstream. It is a
// token bucket with a burst of one, so it is safe to share between workers:
// however many goroutines call Wait, calls leave at most once per interval.
//
// A nil *Pacer never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer spacing calls by interval. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
