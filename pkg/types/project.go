// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EnrichedProject is the primary output unit written to projects.json.
// Field names are part of the contract with the presentation layer.
type EnrichedProject struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Abstract         string           `json:"abstract,omitempty"`
	Type             string           `json:"type"`
	Year             int              `json:"year"`
	Campus           string           `json:"campus,omitempty"`
	EducationProgram EducationProgram `json:"educationProgram"`
	Authors          []Author         `json:"authors"`
	Supervisors      []Supervisor     `json:"supervisors"`
	ProjectURL       string           `json:"projectUrl"`
	HasCollaboration bool             `json:"hasCollaboration"`
	Collaborations   []Collaboration  `json:"collaborations"`
	Keywords         []string         `json:"keywords,omitempty"`
}

// EducationProgram identifies a program by name and short code.
type EducationProgram struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Author is a thesis author by display name.
type Author struct {
	Name string `json:"name"`
}

// Supervisor is a thesis supervisor. ProfileURL is only set for supervisors
// who are still employed; inactive ones render as plain text.
type Supervisor struct {
	Name       string `json:"name"`
	ProfileURL string `json:"vbnUrl,omitempty"`
	IsActive   bool   `json:"isActive"`
	ORCID      string `json:"orcid,omitempty"`
}

// Collaboration is one collaboration edge: the partner of a project.
type Collaboration struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Location *Location `json:"location,omitempty"`
}

// Location is where a partner organization is based.
type Location struct {
	Country     string       `json:"country"`
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
