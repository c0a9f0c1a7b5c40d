// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

func collab(name, typ, country string) types.Collaboration {
	c := types.Collaboration{Name: name, Type: typ}
	if country != "" {
		c.Location = &types.Location{Country: country}
	}
	return c
}

func sampleProjects() []types.EnrichedProject {
	return []types.EnrichedProject{
		{
			ID: "p1", Type: "Master Thesis", Year: 2022, Campus: "Aalborg",
			EducationProgram: types.EducationProgram{Name: "Computer Science", Code: "CS"},
			Collaborations: []types.Collaboration{
				collab("Acme Inc", "company", "Denmark"),
				collab("Nairobi Water", "ngo", "Kenya"),
			},
		},
		{
			ID: "p2", Type: "Bachelor Project", Year: 2024, Campus: "Copenhagen",
			EducationProgram: types.EducationProgram{Name: "Software", Code: "SW"},
			Collaborations: []types.Collaboration{
				collab("Nairobi Water", "ngo", "Kenya"),
			},
		},
		{
			ID: "p3", Type: "Master Thesis", Year: 2022,
			EducationProgram: types.EducationProgram{Name: "Datalogi", Code: "CS"},
			Collaborations: []types.Collaboration{
				collab("Nairobi Water", "ngo", "Kenya"),
				collab("Lone Partner", "unknown", ""),
			},
		},
	}
}

func TestFacets(t *testing.T) {
	f := Facets(sampleProjects(), 0)

	assert.Equal(t, types.YearRange{Min: 2022, Max: 2024, Available: []int{2022, 2024}}, f.Years)
	assert.Equal(t, []types.ProgramCount{
		{Name: "Computer Science", Code: "CS", Count: 2},
		{Name: "Software", Code: "SW", Count: 1},
	}, f.EducationPrograms, "first-seen name wins per code")
	assert.Equal(t, []types.TypeCount{
		{Type: "Master Thesis", Count: 2},
		{Type: "Bachelor Project", Count: 1},
	}, f.ProjectTypes)
	assert.Equal(t, []types.TypeCount{
		{Type: "ngo", Count: 3},
		{Type: "company", Count: 1},
		{Type: "unknown", Count: 1},
	}, f.CollaborationTypes)
	assert.Equal(t, []types.NameCount{
		{Name: "Kenya", Count: 3},
		{Name: "Denmark", Count: 1},
	}, f.Countries)
	assert.Equal(t, []types.NameCount{
		{Name: "Aalborg", Count: 1},
		{Name: "Copenhagen", Count: 1},
	}, f.Campuses)
	assert.Equal(t, []types.PartnerCount{
		{Name: "Nairobi Water", Type: "ngo", Count: 3},
		{Name: "Acme Inc", Type: "company", Count: 1},
		{Name: "Lone Partner", Type: "unknown", Count: 1},
	}, f.Partners)
}

func TestFacets_PartnerLimit(t *testing.T) {
	f := Facets(sampleProjects(), 2)
	require.Len(t, f.Partners, 2)
	assert.Equal(t, "Nairobi Water", f.Partners[0].Name)
	assert.Equal(t, "Acme Inc", f.Partners[1].Name)

	// The statistic still counts every partner.
	assert.Equal(t, 3, Stats(sampleProjects()).UniquePartners)
}

func TestFacets_PartnerIdentityIsExact(t *testing.T) {
	projects := []types.EnrichedProject{
		{ID: "a", Collaborations: []types.Collaboration{collab("Acme Inc", "company", "")}},
		{ID: "b", Collaborations: []types.Collaboration{collab("ACME Inc.", "company", "")}},
	}
	assert.Len(t, Facets(projects, 0).Partners, 2)
	assert.Equal(t, 2, Stats(projects).UniquePartners)
}

func TestFacets_Deterministic(t *testing.T) {
	first := Facets(sampleProjects(), 0)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Facets(sampleProjects(), 0))
	}
	dir := Directory(sampleProjects())
	for i := 0; i < 20; i++ {
		assert.Equal(t, dir, Directory(sampleProjects()))
	}
}

func TestFacets_Empty(t *testing.T) {
	f := Facets(nil, 0)
	assert.Equal(t, 0, f.Years.Min)
	assert.Equal(t, 0, f.Years.Max)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"years": {"min": 0, "max": 0, "available": []},
		"educationPrograms": [],
		"projectTypes": [],
		"collaborationTypes": [],
		"countries": [],
		"campuses": [],
		"partners": []
	}`, string(b))
}

func TestStats(t *testing.T) {
	assert.Equal(t, types.Statistics{
		TotalProjects:       3,
		TotalCollaborations: 5,
		UniquePartners:      3,
		UniqueCountries:     2,
	}, Stats(sampleProjects()))
}

// --- slugs and directory ---

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Inc", "acme-inc"},
		{"  Acme,  Inc. ", "acme-inc"},
		{"Aalborg Kommune / Teknik & Miljø", "aalborg-kommune-teknik-milj"},
		{"123 Go!", "123-go"},
		{"!!!", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlugger_Collisions(t *testing.T) {
	s := NewSlugger()
	assert.Equal(t, "acme-inc", s.Next("Acme Inc"))
	assert.Equal(t, "acme-inc-1", s.Next("Acme Inc"))
	assert.Equal(t, "acme-inc-2", s.Next("ACME, Inc."))
	assert.Equal(t, "unknown", s.Next("???"))
	assert.Equal(t, "unknown-1", s.Next(""))
}

func TestSlugger_SuffixedNameAlreadyTaken(t *testing.T) {
	s := NewSlugger()
	assert.Equal(t, "acme-inc-1", s.Next("Acme Inc 1"))
	assert.Equal(t, "acme-inc", s.Next("Acme Inc"))
	assert.Equal(t, "acme-inc-2", s.Next("Acme Inc"))
}

func TestDirectory(t *testing.T) {
	projects := append(sampleProjects(), types.EnrichedProject{
		ID: "p4",
		Collaborations: []types.Collaboration{
			collab("ACME, Inc.", "company", "Sweden"),
			collab("Lone Partner", "unknown", "Norway"),
			collab("Lone Partner", "unknown", "Norway"),
		},
	})

	got := Directory(projects)
	assert.Equal(t, []types.OrganizationEntry{
		{ID: "nairobi-water", Name: "Nairobi Water", Type: "ngo", Country: "Kenya", ProjectCount: 3},
		{ID: "lone-partner", Name: "Lone Partner", Type: "unknown", Country: "Norway", ProjectCount: 2},
		{ID: "acme-inc", Name: "Acme Inc", Type: "company", Country: "Denmark", ProjectCount: 1},
		{ID: "acme-inc-1", Name: "ACME, Inc.", Type: "company", Country: "Sweden", ProjectCount: 1},
	}, got)
}

func TestDirectory_Empty(t *testing.T) {
	got := Directory(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

// --- Build ---

func TestBuild(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 678_000_000, time.FixedZone("CET", 3600))
	ds := Build(sampleProjects(), Options{Version: "2.0.0", Now: func() time.Time { return now }, PartnerLimit: 100})

	assert.Equal(t, "2026-01-02T02:04:05.678Z", ds.Projects.LastUpdated)
	assert.Equal(t, ds.Projects.LastUpdated, ds.Metadata.LastUpdated)
	assert.Equal(t, ds.Projects.LastUpdated, ds.Organizations.LastUpdated)
	assert.Equal(t, "2.0.0", ds.Metadata.Version)
	assert.Equal(t, 3, ds.Projects.TotalCount)
	assert.Equal(t, 3, ds.Organizations.TotalCount)
	assert.Equal(t, []string{"p1", "p2", "p3"}, []string{ds.Projects.Projects[0].ID, ds.Projects.Projects[1].ID, ds.Projects.Projects[2].ID})
	assert.Equal(t, 3, ds.Metadata.Statistics.TotalProjects)
}

func TestBuild_DefaultsAndEmpty(t *testing.T) {
	ds := Build(nil, Options{})
	assert.Equal(t, DefaultVersion, ds.Projects.Version)
	assert.Equal(t, 0, ds.Projects.TotalCount)

	b, err := json.Marshal(ds.Projects)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"projects":[]`)

	b, err = json.Marshal(ds.Organizations)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"organizations":[]`)
}
