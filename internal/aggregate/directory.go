// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases name, collapses every run of non-alphanumerics into a
// single hyphen and trims hyphens at both ends. Names with nothing left
// become "unknown".
func Slug(name string) string {
	s := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// Slugger hands out slugs unique within its lifetime. The first use of a
// base slug is returned bare; later ones get -1, -2, ... until unique.
type Slugger struct {
	used map[string]bool
}

// NewSlugger returns an empty Slugger.
func NewSlugger() *Slugger { return &Slugger{used: make(map[string]bool)} }

// Next returns a unique slug for name.
func (s *Slugger) Next(name string) string {
	base := Slug(name)
	id := base
	for n := 1; s.used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	s.used[id] = true
	return id
}

// Directory builds the organization directory from collaboration edges.
// Organizations are identified by exact display name; ProjectCount counts
// distinct projects. Slugs are assigned in first-seen order, so an
// organization keeps its slug when the ranking changes. Entries are ranked
// by descending count with ties in first-seen order.
func Directory(projects []types.EnrichedProject) []types.OrganizationEntry {
	var (
		entries []types.OrganizationEntry
		index   = make(map[string]int)
		slugs   = NewSlugger()
	)
	for _, p := range projects {
		seen := make(map[string]bool)
		for _, c := range p.Collaborations {
			i, ok := index[c.Name]
			if !ok {
				i = len(entries)
				index[c.Name] = i
				e := types.OrganizationEntry{ID: slugs.Next(c.Name), Name: c.Name, Type: c.Type}
				if c.Location != nil {
					e.Country = c.Location.Country
				}
				entries = append(entries, e)
			}
			if entries[i].Country == "" && c.Location != nil {
				entries[i].Country = c.Location.Country
			}
			if !seen[c.Name] {
				seen[c.Name] = true
				entries[i].ProjectCount++
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ProjectCount > entries[j].ProjectCount
	})

	if entries == nil {
		entries = []types.OrganizationEntry{}
	}
	return entries
}
