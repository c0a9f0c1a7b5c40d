// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich turns raw thesis records into EnrichedProjects. It resolves
// locale-tagged text, looks up supervisors and partner organizations through
// a run-scoped resolver, and fills in missing coordinates from a geocoder.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/thesis-sync/internal/geocode"
	"github.com/pdiddy/thesis-sync/internal/text"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// Default link prefixes for the public research portal.
const (
	DefaultProjectURLBase = "https://vbn.aau.dk/en/studentthesis"
	DefaultPersonURLBase  = "https://vbn.aau.dk/da/persons"
)

const (
	unknownLabel = "Unknown"
	unknownCode  = "unknown"
	codeLength   = 8
)

// Resolver returns cached secondary entities, or nil when an identifier
// cannot be resolved.
type Resolver interface {
	Organization(ctx context.Context, id string) *types.ResolvedOrganization
	Person(ctx context.Context, id string) *types.ResolvedPerson
}

// Geocoder returns coordinates for a free-text query, or nil.
type Geocoder interface {
	Geocode(ctx context.Context, query string) *types.Coordinates
}

// Enricher derives EnrichedProjects from SourceProjects.
type Enricher struct {
	Resolver Resolver

	// Geocoder is consulted when a partner has no embedded coordinates.
	// Nil skips geocoding.
	Geocoder Geocoder

	Locales        []string
	ProjectURLBase string
	PersonURLBase  string

	// Now supplies the fallback year for records without one.
	Now    func() time.Time
	Logger *log.Logger
}

// New builds an Enricher from cfg. A nil geocoder disables geocoding.
func New(cfg types.EnrichConfig, resolver Resolver, geocoder Geocoder, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.Default()
	}
	e := &Enricher{
		Resolver:       resolver,
		Geocoder:       geocoder,
		Locales:        cfg.Locales,
		ProjectURLBase: cfg.ProjectURLBase,
		PersonURLBase:  cfg.PersonURLBase,
		Now:            time.Now,
		Logger:         logger,
	}
	if len(e.Locales) == 0 {
		e.Locales = text.DefaultLocales
	}
	if e.ProjectURLBase == "" {
		e.ProjectURLBase = DefaultProjectURLBase
	}
	if e.PersonURLBase == "" {
		e.PersonURLBase = DefaultPersonURLBase
	}
	return e
}

// Enrich derives the output record for raw. It returns nil when the record
// fails the inclusion filter, either up front (no collaboration flag or no
// collaborators) or after resolution (no collaborator resolved). The only
// error is a cancelled context.
func (e *Enricher) Enrich(ctx context.Context, raw types.SourceProject) (*types.EnrichedProject, error) {
	if !raw.HasCollaboration() || raw.UUID == "" {
		return nil, nil
	}

	collabs := e.collaborations(ctx, raw.ExternalCollaborators)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(collabs) == 0 {
		e.Logger.Debug("no collaborator resolved", "project", raw.UUID)
		return nil, nil
	}

	p := &types.EnrichedProject{
		ID:               raw.UUID,
		Title:            e.resolve(raw.Title),
		Abstract:         e.resolve(raw.Abstract),
		Type:             raw.Type.Label(e.Locales...),
		Year:             e.year(raw),
		Campus:           e.resolve(raw.Campus),
		EducationProgram: e.program(raw),
		Authors:          authors(raw.Authors),
		Supervisors:      e.supervisors(ctx, raw.Supervisors),
		ProjectURL:       e.projectURL(raw),
		HasCollaboration: true,
		Collaborations:   collabs,
		Keywords:         Keywords(raw.KeywordGroups, e.Locales...),
	}
	if p.Type == "" {
		p.Type = unknownLabel
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Enricher) resolve(t text.LocalizedText) string {
	return strings.TrimSpace(text.Resolve(t, e.Locales...))
}

func (e *Enricher) year(raw types.SourceProject) int {
	if raw.PublicationDate != nil && raw.PublicationDate.Year > 0 {
		return raw.PublicationDate.Year
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return now().Year()
}

// program takes the first education association. The code is the explicit
// program code, else a prefix of the program identifier.
func (e *Enricher) program(raw types.SourceProject) types.EducationProgram {
	var prog types.EducationProgram
	for _, a := range raw.EducationAssociations {
		if a.Education == nil {
			continue
		}
		prog.Name = e.resolve(a.Education.Name)
		prog.Code = strings.TrimSpace(a.Education.Code)
		if prog.Code == "" {
			prog.Code = shortCode(a.Education.UUID)
		}
		break
	}
	if prog.Name == "" && raw.ManagingOrganization != nil {
		prog.Name = e.resolve(raw.ManagingOrganization.Name)
		if prog.Code == "" {
			prog.Code = shortCode(raw.ManagingOrganization.UUID)
		}
	}
	if prog.Name == "" {
		prog.Name = unknownLabel
	}
	if prog.Code == "" {
		prog.Code = unknownCode
	}
	return prog
}

func shortCode(id string) string {
	if len(id) > codeLength {
		return id[:codeLength]
	}
	return id
}

func authors(src []types.SourceAuthor) []types.Author {
	out := make([]types.Author, 0, len(src))
	for _, a := range src {
		if name := a.Name.Full(); name != "" {
			out = append(out, types.Author{Name: name})
		}
	}
	return out
}

// supervisors resolves each referenced person. A profile link is attached
// only to active supervisors. When the lookup fails the embedded name is
// kept without link; supervisors with no known name are dropped.
func (e *Enricher) supervisors(ctx context.Context, src []types.SourceSupervisor) []types.Supervisor {
	out := make([]types.Supervisor, 0, len(src))
	for _, s := range src {
		if s.Person == nil {
			continue
		}
		embedded := e.resolve(s.Person.Name)

		var person *types.ResolvedPerson
		if s.Person.UUID != "" {
			person = e.Resolver.Person(ctx, s.Person.UUID)
		}
		if person == nil {
			if embedded != "" {
				out = append(out, types.Supervisor{Name: embedded})
			}
			continue
		}

		sup := types.Supervisor{
			Name:     person.Name,
			IsActive: person.Active,
			ORCID:    person.ResearcherID,
		}
		if sup.Name == "" {
			sup.Name = embedded
		}
		if sup.Name == "" {
			continue
		}
		if person.Active && person.ProfileID != "" {
			sup.ProfileURL = joinURL(e.PersonURLBase, person.ProfileID)
		}
		out = append(out, sup)
	}
	return out
}

// collaborations resolves each partner organization and drops the ones
// that could not be resolved to a name.
func (e *Enricher) collaborations(ctx context.Context, src []types.SourceCollaborator) []types.Collaboration {
	out := make([]types.Collaboration, 0, len(src))
	for _, c := range src {
		if c.ExternalOrganisation == nil || c.ExternalOrganisation.UUID == "" {
			continue
		}
		org := e.Resolver.Organization(ctx, c.ExternalOrganisation.UUID)
		if org == nil || strings.TrimSpace(org.Name) == "" {
			continue
		}

		collab := types.Collaboration{
			Name: strings.TrimSpace(org.Name),
			Type: org.Type,
		}
		if collab.Type == "" {
			collab.Type = unknownCode
		}
		collab.Location = e.location(ctx, org)
		out = append(out, collab)
	}
	return out
}

// location uses embedded coordinates when present, else geocodes when a
// city or country is known. Returns nil when nothing is known.
func (e *Enricher) location(ctx context.Context, org *types.ResolvedOrganization) *types.Location {
	addr := org.Address
	coords := addr.Coordinates
	if coords == nil && e.Geocoder != nil && (addr.City != "" || addr.Country != "") {
		coords = e.Geocoder.Geocode(ctx, geocode.Query(addr.City, addr.Country, org.Name))
	}
	if addr.City == "" && addr.Country == "" && coords == nil {
		return nil
	}
	return &types.Location{
		Country:     addr.Country,
		City:        addr.City,
		Coordinates: coords,
	}
}

func (e *Enricher) projectURL(raw types.SourceProject) string {
	if u := strings.TrimSpace(raw.PortalURL); u != "" {
		return u
	}
	return joinURL(e.ProjectURLBase, raw.UUID)
}

func joinURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id
}
