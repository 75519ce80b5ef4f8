package source

import (
	"strings"

	"github.com/elonfeng/tripradar/pkg/match"
)

// DefaultExcludedTypes are place types that never make a trip worth taking.
var DefaultExcludedTypes = []string{
	"atm", "bank", "gas_station", "parking", "car_repair", "car_dealer",
	"car_wash", "insurance_agency", "real_estate_agency", "storage",
	"locksmith", "plumber", "electrician", "accounting", "lawyer",
	"post_office", "police", "local_government_office",
}

// Filter drops places whose type tags are all service-only types, or whose
// name contains an excluded phrase.
type Filter struct {
	types map[string]bool
	names []string
}

// NewFilter creates a filter with the default excluded types plus extras.
func NewFilter(extraTypes, excludeNames []string) *Filter {
	types := make(map[string]bool, len(DefaultExcludedTypes)+len(extraTypes))
	for _, t := range DefaultExcludedTypes {
		types[t] = true
	}
	for _, t := range extraTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = true
	}

	names := make([]string, 0, len(excludeNames))
	for _, n := range excludeNames {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names = append(names, n)
		}
	}

	return &Filter{types: types, names: names}
}

// Keep reports whether p is worth recommending. A place with no type tags
// is kept.
func (f *Filter) Keep(p match.ExternalPlace) bool {
	if p.Name == "" {
		return false
	}

	lower := strings.ToLower(p.Name)
	for _, n := range f.names {
		if strings.Contains(lower, n) {
			return false
		}
	}

	if len(p.Types) == 0 {
		return true
	}
	for _, t := range p.Types {
		if !f.types[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// Apply returns the places Keep accepts, in order. A nil filter keeps all.
func (f *Filter) Apply(places []match.ExternalPlace) []match.ExternalPlace {
	if f == nil {
		return places
	}
	out := make([]match.ExternalPlace, 0, len(places))
	for _, p := range places {
		if f.Keep(p) {
			out = append(out, p)
		}
	}
	return out
}
