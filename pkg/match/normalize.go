package match

import "strings"

// KeywordTable maps an interest to the keywords that signal it in an
// external place's name or type tags.
type KeywordTable map[Interest][]string

// DefaultKeywords returns the built-in keyword table.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		InterestBeach:           {"beach", "water sports", "resort", "swimming"},
		InterestCultureHistory:  {"museum", "historical site", "monument", "archaeological"},
		InterestDesertAdventure: {"desert", "sand dune", "adventure", "oasis"},
		InterestFoodGastronomy:  {"restaurant", "market", "food tour", "local cuisine"},
		InterestNightlife:       {"bar", "restaurant", "nightclub", "entertainment"},
		InterestNatureMountains: {"mountain", "hiking trail", "national park", "nature"},
		InterestShopping:        {"market", "shopping", "souq", "bazaar"},
		InterestRelaxationSpa:   {"spa", "wellness", "hot spring", "resort"},
	}
}

// Normalizer derives interest matches for external places.
type Normalizer struct {
	keywords KeywordTable
}

// NewNormalizer builds a normalizer from the default table plus extras.
// Extra keywords are lowercased; blanks are skipped.
func NewNormalizer(extra map[Interest][]string) *Normalizer {
	table := DefaultKeywords()
	for interest, kws := range extra {
		for _, kw := range kws {
			kw = lower(kw)
			if kw == "" {
				continue
			}
			table[interest] = append(table[interest], kw)
		}
	}
	return &Normalizer{keywords: table}
}

// Keywords returns the keywords for an interest.
func (n *Normalizer) Keywords(i Interest) []string {
	return n.keywords[i]
}

// Normalize annotates place with a match flag for every given interest.
func (n *Normalizer) Normalize(place ExternalPlace, interests []Interest) NormalizedPlace {
	name := strings.ToLower(place.Name)
	types := make([]string, len(place.Types))
	for i, t := range place.Types {
		types[i] = strings.ToLower(t)
	}

	matches := make(map[Interest]bool, len(interests))
	for _, interest := range interests {
		matches[interest] = n.matches(interest, name, types)
	}
	return NormalizedPlace{ExternalPlace: place, Matches: matches}
}

func (n *Normalizer) matches(interest Interest, name string, types []string) bool {
	for _, kw := range n.keywords[interest] {
		if name != "" && strings.Contains(name, kw) {
			return true
		}
		for _, t := range types {
			if strings.Contains(t, kw) {
				return true
			}
		}
	}
	return false
}
