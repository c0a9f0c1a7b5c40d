// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunSummary holds the counters of one sync run.
type RunSummary struct {
	// Total is the unfiltered record count reported by the upstream.
	Total   int `json:"total" yaml:"total"`
	Pages   int `json:"pages" yaml:"pages"`
	Fetched int `json:"fetched" yaml:"fetched"`

	// Candidates passed the fetch-time collaboration filter.
	Candidates int `json:"candidates" yaml:"candidates"`

	Processed int `json:"processed" yaml:"processed"`
	Included  int `json:"included" yaml:"included"`
	Excluded  int `json:"excluded" yaml:"excluded"`
	Failed    int `json:"failed" yaml:"failed"`

	OrgLookups     int `json:"org_lookups" yaml:"org_lookups"`
	PersonLookups  int `json:"person_lookups" yaml:"person_lookups"`
	CacheHits      int `json:"cache_hits" yaml:"cache_hits"`
	LookupFailures int `json:"lookup_failures" yaml:"lookup_failures"`
	Geocoded       int `json:"geocoded" yaml:"geocoded"`

	Organizations int `json:"organizations" yaml:"organizations"`
}

// ArtifactInfo describes one published file.
type ArtifactInfo struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Bytes  int    `json:"bytes" yaml:"bytes"`
	SHA256 string `json:"sha256" yaml:"sha256"`
}

// RunRecord is one entry of the run history.
type RunRecord struct {
	ID         string         `json:"id" yaml:"id"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     string         `json:"status" yaml:"status"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	Summary    RunSummary     `json:"summary" yaml:"summary"`
	Artifacts  []ArtifactInfo `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// Run status values stored in the history.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)
