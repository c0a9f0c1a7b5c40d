// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Address is the postal location of a resolved organization.
type Address struct {
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`

	// Coordinates are parsed from the upstream "lat,lng" point when present.
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
}

// ResolvedOrganization is an external organization fetched by identifier.
// It is immutable once cached and lives for one run.
type ResolvedOrganization struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Type    string  `json:"type" yaml:"type"`
	Address Address `json:"address" yaml:"address"`
}

// ResolvedPerson is a person fetched by identifier.
type ResolvedPerson struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// ProfileID identifies the person's public profile page.
	ProfileID string `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`

	// ResearcherID is the person's ORCID, when registered.
	ResearcherID string `json:"researcher_id,omitempty" yaml:"researcher_id,omitempty"`

	// Active is true when at least one affiliation period is open or ends
	// on or after the run date.
	Active bool `json:"active" yaml:"active"`
}
