package match

const (
	keywordMatchPoints = 4
	ratingPoints       = 10
	openNowBonus       = 5
)

// popularityTiers is checked top-down; the first threshold exceeded wins.
var popularityTiers = []struct {
	above int
	bonus float64
}{
	{100, 5},
	{50, 3},
	{10, 1},
}

// ScorePlace normalizes and scores one external place.
func (e *Engine) ScorePlace(profile *Profile, p ExternalPlace) Breakdown {
	return scoreNormalized(profile, e.normalizer.Normalize(p, profile.ActiveInterests()))
}

func scoreNormalized(profile *Profile, n NormalizedPlace) Breakdown {
	var b Breakdown

	for _, interest := range AllInterests() {
		rating := profile.Rating(interest)
		if rating > 0 && n.Matches[interest] {
			b.Interest += float64(rating) / 5 * keywordMatchPoints
		}
	}

	if n.Rating > 0 {
		b.Rating = n.Rating / 5 * ratingPoints
	}

	for _, tier := range popularityTiers {
		if n.UserRatingsTotal > tier.above {
			b.Popularity = tier.bonus
			break
		}
	}

	if n.OpenNow != nil && *n.OpenNow {
		b.OpenNow = openNowBonus
	}
	return b
}

// Dedupe drops places whose ID was already seen, keeping the first
// occurrence. Places without an ID are always kept.
func Dedupe(places []ExternalPlace) []ExternalPlace {
	seen := make(map[string]struct{}, len(places))
	out := make([]ExternalPlace, 0, len(places))
	for _, p := range places {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}
