// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pure talks to the upstream research-information API: it pages
// through the student thesis listing and looks up external organizations
// and persons by identifier. Every request carries the api-key header, is
// paced per endpoint family and retried on transient failures.
package pure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/thesis-sync/internal/httputil"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// ErrNotFound is returned by the lookup endpoints when the upstream has no
// entity with the requested identifier.
var ErrNotFound = errors.New("not found")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}

// Client is an upstream API client. Pages and lookups are paced
// independently; a Client is safe for concurrent use.
type Client struct {
	HTTP   *http.Client
	Config types.PureConfig
	Logger *log.Logger

	// Now is the clock used by the active-employment rule.
	Now func() time.Time

	pages   *httputil.Pacer
	lookups *httputil.Pacer
}

// NewClient builds a client from cfg. A nil logger uses log.Default().
func NewClient(cfg types.PureConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Config:  cfg,
		Logger:  logger,
		Now:     time.Now,
		pages:   httputil.NewPacer(cfg.PageDelay),
		lookups: httputil.NewPacer(cfg.LookupDelay),
	}
}

// endpoint joins the base URL with a relative path and optional query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(c.Config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON issues an authenticated GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, pacer *httputil.Pacer, reqURL string, out any) error {
	if err := pacer.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-key", c.Config.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	c.Logger.Debug("GET", "url", reqURL)
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response from %s: %w", reqURL, err)
	}
	return nil
}
