// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/thesis-sync/internal/httputil"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
	httputil.RetryMaxDelay = 2 * time.Millisecond
}

func newTestClient(baseURL string) *Client {
	c := NewClient(types.PureConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		ProjectsPath: "student-theses",
		PageSize:     100,
		MaxRetries:   2,
	}, log.New(io.Discard))
	c.Now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

// listingServer serves total synthetic records, marking the given indices
// as collaborations. It counts listing requests.
func listingServer(t *testing.T, total int, collab map[int]bool, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/student-theses" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("api-key"); got != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(requests, 1)
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		items := []map[string]any{}
		for i := offset; i < total && i < offset+size; i++ {
			item := map[string]any{"uuid": fmt.Sprintf("p-%03d", i)}
			if collab[i] {
				item["externalCollaboration"] = true
				item["externalCollaborators"] = []map[string]any{
					{"externalOrganisation": map[string]any{"uuid": "org-1"}},
				}
			}
			items = append(items, item)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"count":           total,
			"pageInformation": map[string]int{"offset": offset, "size": size},
			"items":           items,
		})
	}))
}

// --- FetchAll ---

func TestFetchAll_PagesUntilTotal(t *testing.T) {
	var requests int32
	ts := listingServer(t, 250, map[int]bool{5: true, 130: true, 240: true}, &requests)
	defer ts.Close()

	c := newTestClient(ts.URL)
	got, stats, err := c.FetchAll(context.Background(), types.SourceProject.HasCollaboration)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	assert.Equal(t, FetchStats{Total: 250, Pages: 3, Fetched: 250, Matched: 3}, stats)
	require.Len(t, got, 3)
	assert.Equal(t, "p-005", got[0].UUID)
	assert.Equal(t, "p-130", got[1].UUID)
	assert.Equal(t, "p-240", got[2].UUID)
}

func TestFetchAll_NilPredicateKeepsEverything(t *testing.T) {
	var requests int32
	ts := listingServer(t, 42, nil, &requests)
	defer ts.Close()

	got, stats, err := newTestClient(ts.URL).FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 42)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, "p-000", got[0].UUID)
	assert.Equal(t, "p-041", got[41].UUID)
}

func TestFetchAll_EmptyListing(t *testing.T) {
	var requests int32
	ts := listingServer(t, 0, nil, &requests)
	defer ts.Close()

	got, stats, err := newTestClient(ts.URL).FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestFetchAll_NonSuccessIsFatal(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"count": 300,
				"items": []map[string]string{{"uuid": "a"}, {"uuid": "b"}},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	got, _, err := newTestClient(ts.URL).FetchAll(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, got)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	// 5xx is not retried.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchAll_Unauthorized(t *testing.T) {
	var requests int32
	ts := listingServer(t, 10, nil, &requests)
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.Config.APIKey = "wrong"
	_, _, err := c.FetchAll(context.Background(), nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestFetchAll_EmptyPageBeforeTotal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]string{}
		if r.URL.Query().Get("offset") == "0" {
			items = append(items, map[string]string{"uuid": "only"})
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 5, "items": items})
	}))
	defer ts.Close()

	_, stats, err := newTestClient(ts.URL).FetchAll(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty page")
	assert.Equal(t, 2, stats.Pages)
}

func TestFetchAll_RetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 1, "items": []map[string]string{{"uuid": "x"}}})
	}))
	defer ts.Close()

	got, _, err := newTestClient(ts.URL).FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchAll_PacesPages(t *testing.T) {
	var requests int32
	ts := listingServer(t, 30, nil, &requests)
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.Config.PageSize = 10
	c.pages = httputil.NewPacer(20 * time.Millisecond)

	start := time.Now()
	_, stats, err := c.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pages)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

// --- Organization ---

func TestOrganization(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/external-organizations/org-1":
			fmt.Fprint(w, `{
				"uuid": "org-1",
				"name": {"text": [{"locale": "da_DK", "value": "Acme A/S"}, {"locale": "en_GB", "value": "Acme Inc"}]},
				"type": {"uri": "/dk/atira/pure/ueoexternalorganisation/ueoexternalorganisationtypes/ueoexternalorganisation/company", "term": {"text": [{"locale": "en_GB", "value": "Company"}]}},
				"address": {
					"city": " Aalborg ",
					"country": {"term": {"text": [{"locale": "en_GB", "value": "Denmark"}]}},
					"geoLocation": {"point": "57.048,9.9187"}
				}
			}`)
		case "/external-organizations/org-2":
			fmt.Fprint(w, `{
				"uuid": "org-2",
				"name": "Plain Org",
				"type": {"uri": "/types/university"},
				"address": {"geoLocation": {"point": "", "calculatedPoint": "-1.29,36.82"}}
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	org, err := c.Organization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)
	assert.Equal(t, "Acme Inc", org.Name)
	assert.Equal(t, "Company", org.Type)
	assert.Equal(t, "Aalborg", org.Address.City)
	assert.Equal(t, "Denmark", org.Address.Country)
	require.NotNil(t, org.Address.Coordinates)
	assert.InDelta(t, 57.048, org.Address.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 9.9187, org.Address.Coordinates.Lng, 1e-9)

	org, err = c.Organization(context.Background(), "org-2")
	require.NoError(t, err)
	assert.Equal(t, "Plain Org", org.Name)
	assert.Equal(t, "university", org.Type)
	require.NotNil(t, org.Address.Coordinates)
	assert.InDelta(t, -1.29, org.Address.Coordinates.Lat, 1e-9)

	_, err = c.Organization(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Organization(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Person ---

func TestPerson(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/persons/active":
			fmt.Fprint(w, `{
				"uuid": "active",
				"name": {"firstName": "Ada", "lastName": "Lovelace"},
				"externalId": "ada-lovelace",
				"orcid": "0000-0001-2345-6789",
				"staffOrganizationAssociations": [
					{"period": {"startDate": "2010-01-01", "endDate": "2015-01-01"}},
					{"period": {"startDate": "2016-01-01"}}
				]
			}`)
		case "/persons/former":
			fmt.Fprint(w, `{
				"uuid": "former",
				"name": {"firstName": "Charles", "lastName": "Babbage"},
				"staffOrganizationAssociations": [
					{"period": {"startDate": "2000-01-01", "endDate": "2026-03-14T00:00:00.000+01:00"}}
				]
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	p, err := c.Person(context.Background(), "active")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, "ada-lovelace", p.ProfileID)
	assert.Equal(t, "0000-0001-2345-6789", p.ResearcherID)
	assert.True(t, p.Active)

	p, err = c.Person(context.Background(), "former")
	require.NoError(t, err)
	assert.Equal(t, "Charles Babbage", p.Name)
	assert.Equal(t, "former", p.ProfileID)
	assert.False(t, p.Active)

	_, err = c.Person(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		periods []Period
		want    bool
	}{
		{"no periods", nil, false},
		{"open ended", []Period{{StartDate: "2020-01-01"}}, true},
		{"ended yesterday", []Period{{EndDate: "2026-03-14"}}, false},
		{"ends today", []Period{{EndDate: "2026-03-15"}}, true},
		{"ends next year", []Period{{EndDate: "2027-01-01"}}, true},
		{"timestamp suffix", []Period{{EndDate: "2026-03-16T00:00:00Z"}}, true},
		{"one of many open", []Period{{EndDate: "2001-01-01"}, {StartDate: "2019-01-01"}}, true},
		{"unparseable end", []Period{{EndDate: "soon"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.periods, now))
		})
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in   string
		want *types.Coordinates
	}{
		{"57.048,9.9187", &types.Coordinates{Lat: 57.048, Lng: 9.9187}},
		{" -1.2920659 , 36.8219462 ", &types.Coordinates{Lat: -1.2920659, Lng: 36.8219462}},
		{"", nil},
		{"57.048", nil},
		{"north,east", nil},
		{"91,0", nil},
		{"0,181", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePoint(tt.in))
		})
	}
}
