// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate folds enriched projects into the metadata facets and the
// organization directory. Output depends only on the input order: ranked
// lists sort by descending count and ties keep first-seen order.
package aggregate

import (
	"sort"
	"time"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

// TimestampFormat is the lastUpdated layout: UTC ISO-8601 with milliseconds.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// DefaultVersion is the artifact version tag.
const DefaultVersion = "1.0.0"

// Options controls envelope fields and list limits.
type Options struct {
	Version string

	// Now stamps lastUpdated. Nil uses time.Now.
	Now func() time.Time

	// PartnerLimit caps the ranked partner facet; 0 keeps every partner.
	PartnerLimit int
}

// Timestamp formats t as a lastUpdated value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Build assembles all three artifacts for one run. projects is used as-is
// for projects.json, in the given order.
func Build(projects []types.EnrichedProject, opts Options) types.Datasets {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := Timestamp(now())

	if projects == nil {
		projects = []types.EnrichedProject{}
	}
	orgs := Directory(projects)
	return types.Datasets{
		Projects: types.ProjectsArtifact{
			Version:     version,
			LastUpdated: stamp,
			TotalCount:  len(projects),
			Projects:    projects,
		},
		Organizations: types.OrganizationsArtifact{
			Version:       version,
			LastUpdated:   stamp,
			TotalCount:    len(orgs),
			Organizations: orgs,
		},
		Metadata: types.MetadataArtifact{
			Version:     version,
			LastUpdated: stamp,
			Filters:     Facets(projects, opts.PartnerLimit),
			Statistics:  Stats(projects),
		},
	}
}

// counter counts keys and remembers first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter { return &counter{counts: make(map[string]int)} }

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns keys by descending count, ties in first-seen order.
func (c *counter) ranked() []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	return keys
}

// Facets computes the filter lists in a single pass.
func Facets(projects []types.EnrichedProject, partnerLimit int) types.Filters {
	var (
		years        = make(map[int]bool)
		projectTypes = newCounter()
		collabTypes  = newCounter()
		countries    = newCounter()
		campuses     = newCounter()
		partners     = newCounter()
		programs     = newCounter()
		programNames = make(map[string]string)
		partnerTypes = make(map[string]string)
	)

	for _, p := range projects {
		years[p.Year] = true
		projectTypes.add(p.Type)
		if p.Campus != "" {
			campuses.add(p.Campus)
		}
		code := p.EducationProgram.Code
		if _, ok := programNames[code]; !ok {
			programNames[code] = p.EducationProgram.Name
		}
		programs.add(code)

		for _, c := range p.Collaborations {
			collabTypes.add(c.Type)
			partners.add(c.Name)
			if _, ok := partnerTypes[c.Name]; !ok {
				partnerTypes[c.Name] = c.Type
			}
			if c.Location != nil && c.Location.Country != "" {
				countries.add(c.Location.Country)
			}
		}
	}

	f := types.Filters{
		Years:              yearRange(years),
		EducationPrograms:  []types.ProgramCount{},
		ProjectTypes:       typeCounts(projectTypes),
		CollaborationTypes: typeCounts(collabTypes),
		Countries:          nameCounts(countries),
		Campuses:           nameCounts(campuses),
		Partners:           []types.PartnerCount{},
	}
	for _, code := range programs.ranked() {
		f.EducationPrograms = append(f.EducationPrograms, types.ProgramCount{
			Name:  programNames[code],
			Code:  code,
			Count: programs.counts[code],
		})
	}
	for _, name := range partners.ranked() {
		if partnerLimit > 0 && len(f.Partners) >= partnerLimit {
			break
		}
		f.Partners = append(f.Partners, types.PartnerCount{
			Name:  name,
			Type:  partnerTypes[name],
			Count: partners.counts[name],
		})
	}
	return f
}

func yearRange(years map[int]bool) types.YearRange {
	yr := types.YearRange{Available: make([]int, 0, len(years))}
	for y := range years {
		yr.Available = append(yr.Available, y)
	}
	sort.Ints(yr.Available)
	if n := len(yr.Available); n > 0 {
		yr.Min, yr.Max = yr.Available[0], yr.Available[n-1]
	}
	return yr
}

func typeCounts(c *counter) []types.TypeCount {
	out := make([]types.TypeCount, 0, len(c.order))
	for _, k := range c.ranked() {
		out = append(out, types.TypeCount{Type: k, Count: c.counts[k]})
	}
	return out
}

func nameCounts(c *counter) []types.NameCount {
	out := make([]types.NameCount, 0, len(c.order))
	for _, k := range c.ranked() {
		out = append(out, types.NameCount{Name: k, Count: c.counts[k]})
	}
	return out
}

// Stats computes the dataset totals. Partners are identified by exact
// display name.
func Stats(projects []types.EnrichedProject) types.Statistics {
	partners := make(map[string]bool)
	countries := make(map[string]bool)
	st := types.Statistics{TotalProjects: len(projects)}
	for _, p := range projects {
		st.TotalCollaborations += len(p.Collaborations)
		for _, c := range p.Collaborations {
			partners[c.Name] = true
			if c.Location != nil && c.Location.Country != "" {
				countries[c.Location.Country] = true
			}
		}
	}
	st.UniquePartners = len(partners)
	st.UniqueCountries = len(countries)
	return st
}
