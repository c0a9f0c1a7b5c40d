// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pure

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/thesis-sync/internal/text"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

const dateLayout = "2006-01-02"

// Organization looks up an external organization. A 404 yields ErrNotFound.
func (c *Client) Organization(ctx context.Context, id string) (*types.ResolvedOrganization, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var raw organizationResponse
	if err := c.getJSON(ctx, c.lookups, c.endpoint("external-organizations/"+url.PathEscape(id), nil), &raw); err != nil {
		return nil, fmt.Errorf("organization %s: %w", id, err)
	}

	org := &types.ResolvedOrganization{
		ID:   raw.UUID,
		Name: text.Resolve(raw.Name),
		Type: raw.Type.Label(),
	}
	if org.ID == "" {
		org.ID = id
	}
	if a := raw.Address; a != nil {
		org.Address.City = strings.TrimSpace(a.City)
		if a.Country != nil {
			org.Address.Country = a.Country.Label()
		}
		if g := a.GeoLocation; g != nil {
			org.Address.Coordinates = ParsePoint(g.Point)
			if org.Address.Coordinates == nil {
				org.Address.Coordinates = ParsePoint(g.CalculatedPoint)
			}
		}
	}
	return org, nil
}

// Person looks up a person and evaluates the active-employment rule
// against c.Now. A 404 yields ErrNotFound.
func (c *Client) Person(ctx context.Context, id string) (*types.ResolvedPerson, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var raw personResponse
	if err := c.getJSON(ctx, c.lookups, c.endpoint("persons/"+url.PathEscape(id), nil), &raw); err != nil {
		return nil, fmt.Errorf("person %s: %w", id, err)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	p := &types.ResolvedPerson{
		ID:           raw.UUID,
		Name:         raw.Name.Full(),
		ProfileID:    raw.ExternalID,
		ResearcherID: raw.ORCID,
	}
	if p.ID == "" {
		p.ID = id
	}
	if p.ProfileID == "" {
		p.ProfileID = p.ID
	}
	periods := make([]Period, 0, len(raw.StaffOrganizationAssociations))
	for _, a := range raw.StaffOrganizationAssociations {
		if a.Period != nil {
			periods = append(periods, *a.Period)
		}
	}
	p.Active = IsActive(periods, now())
	return p, nil
}

// Period is an affiliation interval. Dates are ISO-8601; only the date part
// is significant. An empty EndDate means open-ended.
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// IsActive reports whether any period is open-ended or ends on or after the
// calendar day of now. No periods means inactive. Unparseable end dates are
// treated as ended.
func IsActive(periods []Period, now time.Time) bool {
	today := now.Format(dateLayout)
	for _, p := range periods {
		end := strings.TrimSpace(p.EndDate)
		if end == "" {
			return true
		}
		if len(end) > len(dateLayout) {
			end = end[:len(dateLayout)]
		}
		if _, err := time.Parse(dateLayout, end); err != nil {
			continue
		}
		if end >= today {
			return true
		}
	}
	return false
}

// ParsePoint parses a "lat,lng" coordinate string. It returns nil for empty
// or malformed input and for values outside the WGS84 range.
func ParsePoint(s string) *types.Coordinates {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}
	return &types.Coordinates{Lat: lat, Lng: lng}
}

// Lookup response JSON structures.
type organizationResponse struct {
	UUID    string               `json:"uuid"`
	Name    text.LocalizedText   `json:"name"`
	Type    types.Classification `json:"type"`
	Address *organizationAddress `json:"address"`
}

type organizationAddress struct {
	City        string                `json:"city"`
	Country     *types.Classification `json:"country"`
	GeoLocation *geoLocation          `json:"geoLocation"`
}

type geoLocation struct {
	Point           string `json:"point"`
	CalculatedPoint string `json:"calculatedPoint"`
}

type personResponse struct {
	UUID                          string             `json:"uuid"`
	Name                          types.PersonName   `json:"name"`
	ExternalID                    string             `json:"externalId"`
	ORCID                         string             `json:"orcid"`
	StaffOrganizationAssociations []staffAssociation `json:"staffOrganizationAssociations"`
}

type staffAssociation struct {
	Period *Period `json:"period"`
}
