// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProjectsArtifact is the projects.json document.
type ProjectsArtifact struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	TotalCount  int               `json:"totalCount"`
	Projects    []EnrichedProject `json:"projects"`
}

// OrganizationsArtifact is the organizations.json document.
type OrganizationsArtifact struct {
	Version       string              `json:"version"`
	LastUpdated   string              `json:"lastUpdated"`
	TotalCount    int                 `json:"totalCount"`
	Organizations []OrganizationEntry `json:"organizations"`
}

// OrganizationEntry is one row of the organization directory.
type OrganizationEntry struct {
	// ID is a slug derived from Name, unique within a run.
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Country      string `json:"country,omitempty"`
	ProjectCount int    `json:"projectCount"`
}

// MetadataArtifact is the metadata.json document.
type MetadataArtifact struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Filters     Filters    `json:"filters"`
	Statistics  Statistics `json:"statistics"`
}

// Filters holds the facet lists the presentation layer filters on.
type Filters struct {
	Years              YearRange      `json:"years"`
	EducationPrograms  []ProgramCount `json:"educationPrograms"`
	ProjectTypes       []TypeCount    `json:"projectTypes"`
	CollaborationTypes []TypeCount    `json:"collaborationTypes"`
	Countries          []NameCount    `json:"countries"`
	Campuses           []NameCount    `json:"campuses"`
	Partners           []PartnerCount `json:"partners"`
}

// YearRange is the span of publication years and the years present.
type YearRange struct {
	Min       int   `json:"min"`
	Max       int   `json:"max"`
	Available []int `json:"available"`
}

// ProgramCount counts projects per education program.
type ProgramCount struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// TypeCount counts occurrences of a type label.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// NameCount counts occurrences of a named category.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PartnerCount ranks a partner organization by collaboration edges.
type PartnerCount struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Statistics are dataset-wide totals.
type Statistics struct {
	TotalProjects       int `json:"totalProjects"`
	TotalCollaborations int `json:"totalCollaborations"`
	UniquePartners      int `json:"uniquePartners"`
	UniqueCountries     int `json:"uniqueCountries"`
}

// Datasets bundles the three artifacts published together by one run.
type Datasets struct {
	Projects      ProjectsArtifact
	Organizations OrganizationsArtifact
	Metadata      MetadataArtifact
}
