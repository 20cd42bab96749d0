package search

import (
	"strings"

	"github.com/angelmondragon/farmstand-backend/internal/ranking"
)

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// matches reports whether any field contains term. term must already be lowercased.
func matches(term string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func filterProducts(products []ranking.RankedProduct, term string) []ranking.RankedProduct {
	out := make([]ranking.RankedProduct, 0, len(products))
	for _, p := range products {
		fields := append([]string{p.Name, deref(p.Description), p.NearestPickupName()}, p.Tags...)
		if matches(term, fields...) {
			out = append(out, p)
		}
	}
	return out
}

func filterStands(stands []PickupLocation, term string) []PickupLocation {
	out := make([]PickupLocation, 0, len(stands))
	for _, s := range stands {
		fields := append([]string{s.Name, deref(s.Description), s.LocationName}, s.Tags...)
		if matches(term, fields...) {
			out = append(out, s)
		}
	}
	return out
}

func filterFarms(farms []Farm, term string) []Farm {
	out := make([]Farm, 0, len(farms))
	for _, f := range farms {
		fields := append([]string{f.Name, deref(f.Description), f.LocationName}, f.Tags...)
		if matches(term, fields...) {
			out = append(out, f)
		}
	}
	return out
}
