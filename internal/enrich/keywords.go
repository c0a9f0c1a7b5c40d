// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"strings"

	"github.com/pdiddy/thesis-sync/internal/text"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// Keywords flattens keyword groups into a deduplicated list in first-seen
// order. Per container, free keywords are taken from the best locale by the
// same precedence as text resolution; structured keywords contribute their
// resolved term.
func Keywords(groups []types.KeywordGroup, locales ...string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}

	for _, g := range groups {
		for _, c := range g.KeywordContainers {
			if len(c.FreeKeywords) > 0 {
				locs := make([]string, len(c.FreeKeywords))
				for i, fk := range c.FreeKeywords {
					locs[i] = fk.Locale
				}
				if i := text.PickLocale(locs, locales...); i >= 0 {
					for _, kw := range c.FreeKeywords[i].FreeKeywords {
						add(kw)
					}
				}
			}
			if c.StructuredKeyword != nil {
				add(text.Resolve(c.StructuredKeyword.Term, locales...))
			}
		}
	}
	return out
}
