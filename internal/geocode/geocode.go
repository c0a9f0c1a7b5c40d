// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geocode turns free-text location descriptions into coordinates
// using a Nominatim-compatible search service. Geocoding is best-effort:
// every failure yields nil and a warning.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/thesis-sync/internal/httputil"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// DefaultBaseURL is the public Nominatim search endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org/search"

// geocodeRetries keeps retries short; the service is rate limited hard and
// a missing coordinate is acceptable.
const geocodeRetries = 1

// Geocoder is a memoizing, paced geocoding client. Safe for concurrent use.
type Geocoder struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
	Logger    *log.Logger

	pacer *httputil.Pacer

	mu    sync.Mutex
	memo  map[string]*lookup
	calls int
}

// lookup is one memoized query. done is closed once coords is set.
type lookup struct {
	done   chan struct{}
	coords *types.Coordinates
}

// New builds a Geocoder from cfg. A nil logger uses log.Default().
func New(cfg types.GeocodeConfig, logger *log.Logger) *Geocoder {
	if logger == nil {
		logger = log.Default()
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Geocoder{
		Client:    &http.Client{Timeout: timeout},
		BaseURL:   base,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
		pacer:     httputil.NewPacer(cfg.Delay),
		memo:      make(map[string]*lookup),
	}
}

// Query builds the most specific description available: city and country,
// else country, else the organization name.
func Query(city, country, name string) string {
	city, country, name = strings.TrimSpace(city), strings.TrimSpace(country), strings.TrimSpace(name)
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	case city != "":
		return city
	default:
		return name
	}
}

// Geocode returns the first match for query, or nil. Results, including
// misses, are memoized per query for the lifetime of g. Concurrent callers
// with the same query share one network lookup.
func (g *Geocoder) Geocode(ctx context.Context, query string) (coords *types.Coordinates) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	g.mu.Lock()
	if l, ok := g.memo[query]; ok {
		g.mu.Unlock()
		select {
		case <-l.done:
			return l.coords
		case <-ctx.Done():
			return nil
		}
	}
	l := &lookup{done: make(chan struct{})}
	g.memo[query] = l
	g.calls++
	g.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			g.Logger.Warn("geocoding panicked", "query", query, "panic", r)
			coords = nil
		}
		l.coords = coords
		close(l.done)
	}()

	coords, err := g.search(ctx, query)
	if err != nil {
		g.Logger.Warn("geocoding failed", "query", query, "err", err)
	}
	return coords
}

// Calls returns the number of network lookups performed.
func (g *Geocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *Geocoder) search(ctx context.Context, query string) (*types.Coordinates, error) {
	if err := g.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, g.Client, req, geocodeRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned HTTP %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("parsing geocoder response: %w", err)
	}
	if len(places) == 0 {
		return nil, errors.New("no match")
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", places[0].Lon, err)
	}
	return &types.Coordinates{Lat: lat, Lng: lng}, nil
}

// Nominatim search result JSON structure. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
