// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: bounded
// retries with exponential backoff and per-upstream request pacing.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay is the first backoff interval; it doubles per attempt up to
// RetryMaxDelay. Tests override both to avoid real sleeps.
var (
	RetryBaseDelay = 500 * time.Millisecond
	RetryMaxDelay  = 5 * time.Second
)

const defaultMaxRetries = 5

// ErrRetriesExhausted is returned when a transport failure persists after the
// retry ceiling.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DoWithRetry executes an HTTP request, retrying transport errors and HTTP
// 429 (Too Many Requests) with exponential backoff: 500ms, 1s, 2s, 4s, 5s.
//
// When maxRetries is 0 the default (5) is used. On each 429 the response
// body is drained and closed before sleeping. Any other status is returned
// to the caller untouched; deciding whether it is fatal is the caller's job.
// After exhausting retries on 429 the last response is returned so the
// caller can inspect it; after exhausting retries on transport errors the
// error wraps ErrRetriesExhausted. A cancelled context stops retrying
// immediately and returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if attempt >= maxRetries {
				return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt+1, err)
			}
		} else {
			if resp.StatusCode != http.StatusTooManyRequests {
				return resp, nil
			}
			// Exhausted retries: return the 429 response as-is.
			if attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Backoff(attempt)):
		}
	}
}

// Backoff returns the wait before retry number attempt (0-based).
func Backoff(attempt int) time.Duration {
	d := RetryBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= RetryMaxDelay {
			return RetryMaxDelay
		}
	}
	if d > RetryMaxDelay {
		return RetryMaxDelay
	}
	return d
}
