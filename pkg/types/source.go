// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the thesis-sync pipeline:
// raw upstream records, resolved secondary entities, enriched projects, the
// three published artifacts, and stage configuration.
package types

import (
	"strings"

	"github.com/pdiddy/thesis-sync/internal/text"
)

// SourceProject is a raw student thesis record as returned by the upstream
// listing endpoint. It lives only for the duration of a run and is never
// written back out.
type SourceProject struct {
	// UUID is the upstream identifier.
	UUID string `json:"uuid"`

	Title    text.LocalizedText `json:"title"`
	Abstract text.LocalizedText `json:"abstract"`

	// Type classifies the thesis (e.g. "Master Thesis").
	Type Classification `json:"type"`

	PublicationDate *PublicationDate `json:"publicationDate,omitempty"`

	Authors     []SourceAuthor     `json:"authors"`
	Supervisors []SourceSupervisor `json:"supervisors"`

	// ExternalCollaboration is the upstream flag marking a project as
	// written together with an external partner.
	ExternalCollaboration bool                 `json:"externalCollaboration"`
	ExternalCollaborators []SourceCollaborator `json:"externalCollaborators"`

	EducationAssociations []EducationAssociation `json:"educationAssociations"`
	KeywordGroups         []KeywordGroup         `json:"keywordGroups"`

	Campus    text.LocalizedText `json:"campus"`
	PortalURL string             `json:"portalUrl"`

	ManagingOrganization *OrganizationRef `json:"managingOrganization,omitempty"`
}

// HasCollaboration reports whether the record passes the dataset's
// inclusion filter: the collaboration flag is set and at least one
// collaborator is listed.
func (p SourceProject) HasCollaboration() bool {
	return p.ExternalCollaboration && len(p.ExternalCollaborators) > 0
}

// Classification is a typed vocabulary term.
type Classification struct {
	URI  string             `json:"uri"`
	Term text.LocalizedText `json:"term"`
}

// Label resolves the term, falling back to the last URI segment.
func (c Classification) Label(locales ...string) string {
	if s := text.Resolve(c.Term, locales...); s != "" {
		return s
	}
	if c.URI == "" {
		return ""
	}
	uri := strings.TrimRight(c.URI, "/")
	return uri[strings.LastIndex(uri, "/")+1:]
}

// PublicationDate holds the publication year of a thesis.
type PublicationDate struct {
	Year int `json:"year"`
}

// PersonName is the structured first/last name pair used for authors.
type PersonName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Full joins first and last name.
func (n PersonName) Full() string {
	return strings.TrimSpace(strings.TrimSpace(n.FirstName) + " " + strings.TrimSpace(n.LastName))
}

// SourceAuthor is an author entry; authors are never looked up.
type SourceAuthor struct {
	Name PersonName `json:"name"`
}

// SourceSupervisor references a person by identifier.
type SourceSupervisor struct {
	Person *PersonRef `json:"person,omitempty"`
}

// PersonRef is an embedded person reference.
type PersonRef struct {
	UUID string             `json:"uuid"`
	Name text.LocalizedText `json:"name"`
}

// SourceCollaborator references an external organization by identifier.
type SourceCollaborator struct {
	ExternalOrganisation *OrganizationRef `json:"externalOrganisation,omitempty"`
}

// OrganizationRef is an embedded organization reference.
type OrganizationRef struct {
	UUID string             `json:"uuid"`
	Name text.LocalizedText `json:"name"`
}

// EducationAssociation links a thesis to an education program and semester.
type EducationAssociation struct {
	Education *Education `json:"education,omitempty"`
	Semester  *Semester  `json:"semester,omitempty"`
}

// Education is an education program as embedded in a thesis record.
type Education struct {
	UUID string             `json:"uuid"`
	Name text.LocalizedText `json:"name"`
	Code string             `json:"code"`
}

// Semester is an optional semester association.
type Semester struct {
	UUID string             `json:"uuid"`
	Name text.LocalizedText `json:"name"`
}

// KeywordGroup is one logical group of keywords.
type KeywordGroup struct {
	LogicalName       string             `json:"logicalName"`
	KeywordContainers []KeywordContainer `json:"keywordContainers"`
}

// KeywordContainer holds either free keywords per locale or a structured
// vocabulary term.
type KeywordContainer struct {
	FreeKeywords      []LocalizedKeywords `json:"freeKeywords"`
	StructuredKeyword *Classification     `json:"structuredKeyword,omitempty"`
}

// LocalizedKeywords is the keyword list for a single locale.
type LocalizedKeywords struct {
	Locale       string   `json:"locale"`
	FreeKeywords []string `json:"freeKeywords"`
}
