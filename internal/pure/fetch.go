// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pure

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

const (
	defaultPageSize     = 100
	defaultProjectsPath = "student-theses"
)

// Predicate selects records client-side after each page is retrieved.
type Predicate func(types.SourceProject) bool

// FetchStats summarizes one FetchAll call. Total is the unfiltered count
// reported by the upstream; Matched is what the predicate kept.
type FetchStats struct {
	Total   int `json:"total" yaml:"total"`
	Pages   int `json:"pages" yaml:"pages"`
	Fetched int `json:"fetched" yaml:"fetched"`
	Matched int `json:"matched" yaml:"matched"`
}

// FetchAll pages through the project listing until the cumulative number of
// fetched records reaches the total reported by the first page. The first
// page doubles as the discovery request. A nil predicate keeps every record.
//
// Any non-2xx status, exhausted retries or an empty page before the total
// is reached aborts the fetch; no partial result is returned.
func (c *Client) FetchAll(ctx context.Context, pred Predicate) ([]types.SourceProject, FetchStats, error) {
	size := c.Config.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var (
		stats   FetchStats
		matched []types.SourceProject
	)
	for offset := 0; ; {
		page, err := c.fetchPage(ctx, offset, size)
		if err != nil {
			return nil, stats, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}
		stats.Pages++
		if stats.Pages == 1 {
			stats.Total = page.Count
			c.Logger.Info("discovered projects", "total", stats.Total, "page_size", size)
		}

		for _, p := range page.Items {
			if pred == nil || pred(p) {
				matched = append(matched, p)
			}
		}
		stats.Fetched += len(page.Items)
		offset += len(page.Items)

		c.Logger.Debug("page fetched",
			"page", stats.Pages,
			"items", len(page.Items),
			"fetched", stats.Fetched,
			"total", stats.Total,
		)

		if stats.Fetched >= stats.Total {
			break
		}
		if len(page.Items) == 0 {
			return nil, stats, fmt.Errorf("empty page at offset %d with %d of %d records fetched",
				offset, stats.Fetched, stats.Total)
		}
	}

	stats.Matched = len(matched)
	return matched, stats, nil
}

func (c *Client) fetchPage(ctx context.Context, offset, size int) (*pageResponse, error) {
	q := url.Values{
		"size":   {strconv.Itoa(size)},
		"offset": {strconv.Itoa(offset)},
	}
	path := c.Config.ProjectsPath
	if path == "" {
		path = defaultProjectsPath
	}
	var page pageResponse
	if err := c.getJSON(ctx, c.pages, c.endpoint(path, q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Listing response JSON structures.
type pageResponse struct {
	Count           int                   `json:"count"`
	PageInformation pageInformation       `json:"pageInformation"`
	Items           []types.SourceProject `json:"items"`
}

type pageInformation struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}
