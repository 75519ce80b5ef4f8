package source

import (
	"sort"

	"github.com/elonfeng/tripradar/pkg/match"
)

const (
	maxQueryInterests = 3
	fallbackKeyword   = "tourist attraction"
)

// BuildQuery searches region for the keywords of the profile's three highest
// rated interests. Equal ratings keep vocabulary order. A profile without
// rated interests searches for tourist attractions.
func BuildQuery(profile *match.Profile, region Region, n *match.Normalizer) Query {
	interests := profile.ActiveInterests()
	sort.SliceStable(interests, func(i, j int) bool {
		return profile.Rating(interests[i]) > profile.Rating(interests[j])
	})
	if len(interests) > maxQueryInterests {
		interests = interests[:maxQueryInterests]
	}

	var keywords []string
	for _, i := range interests {
		keywords = append(keywords, n.Keywords(i)...)
	}
	if len(keywords) == 0 {
		keywords = []string{fallbackKeyword}
	}
	return Query{Region: region, Keywords: keywords}
}
