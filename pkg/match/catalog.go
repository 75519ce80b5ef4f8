package match

import "strings"

// interestWeights is the base score a destination earns for serving an
// interest the user rated 5.
var interestWeights = map[Interest]float64{
	InterestBeach:           5,
	InterestCultureHistory:  5,
	InterestDesertAdventure: 5,
	InterestFoodGastronomy:  5,
	InterestNightlife:       3,
	InterestNatureMountains: 5,
	InterestShopping:        3,
	InterestRelaxationSpa:   5,
}

// interestAliases lists the catalog tags accepted for each interest besides
// the interest name itself. Older catalog records use the short forms.
var interestAliases = map[Interest][]string{
	InterestFoodGastronomy:  {"food"},
	InterestNatureMountains: {"nature"},
	InterestRelaxationSpa:   {"relaxation", "spa"},
}

// acceptableBudgets maps a user's budget to the destination labels it covers.
var acceptableBudgets = map[BudgetRange][]string{
	BudgetLow:    {LabelBudget},
	BudgetMedium: {LabelModerate, LabelBudget},
	BudgetHigh:   {LabelPremium, LabelModerate, LabelBudget},
	BudgetLuxury: {LabelLuxury, LabelPremium, LabelBudget},
}

var expectedCrowd = map[CrowdTolerance]CrowdLevel{
	CrowdAvoid:   CrowdLevelQuiet,
	CrowdNeutral: CrowdLevelModerate,
	CrowdPopular: CrowdLevelTouristy,
}

// Both scales are ordered low to high; neighbours are one step apart.
var (
	crowdOrder    = []string{string(CrowdLevelQuiet), string(CrowdLevelModerate), string(CrowdLevelTouristy)}
	activityOrder = []string{string(ActivityRelaxed), string(ActivityModerate), string(ActivityAdventurous)}
)

const (
	budgetMatch   = 15
	budgetPartial = 5

	regionPrimary   = 10
	regionSecondary = 7
	regionNeutral   = 5

	styleExact         = 5
	styleAdjacent      = 3
	accommodationBonus = 5

	familyBonus = 5
)

// ScoreDestination computes the sub-scores for one catalog destination.
func (e *Engine) ScoreDestination(profile *Profile, d Destination) Breakdown {
	return Breakdown{
		Interest: interestScore(profile, d.BestFor),
		Budget:   budgetScore(profile, d.BudgetLevels),
		Region:   regionScore(profile, d.Region),
		Style:    styleScore(profile, d),
		Duration: e.durationScore(profile, d),
		Family:   familyScore(profile, d),
	}
}

func interestScore(profile *Profile, bestFor []string) float64 {
	if len(bestFor) == 0 {
		return 0
	}
	tags := make(map[string]struct{}, len(bestFor))
	for _, t := range bestFor {
		tags[lower(t)] = struct{}{}
	}

	var score float64
	for _, interest := range AllInterests() {
		rating := profile.Rating(interest)
		if rating == 0 || !servesInterest(tags, interest) {
			continue
		}
		score += interestWeights[interest] * float64(rating) / 5
	}
	return score
}

func servesInterest(tags map[string]struct{}, interest Interest) bool {
	if _, ok := tags[lower(string(interest))]; ok {
		return true
	}
	for _, alias := range interestAliases[interest] {
		if _, ok := tags[alias]; ok {
			return true
		}
	}
	return false
}

func budgetScore(profile *Profile, levels []string) float64 {
	budget := BudgetMedium
	if profile != nil {
		if _, ok := acceptableBudgets[profile.BudgetRange]; ok {
			budget = profile.BudgetRange
		}
	}
	for _, want := range acceptableBudgets[budget] {
		for _, have := range levels {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return budgetMatch
			}
		}
	}
	return budgetPartial
}

func regionScore(profile *Profile, region string) float64 {
	if profile == nil || len(profile.PreferredRegions) == 0 {
		return regionNeutral
	}
	region = lower(region)
	if region == "" {
		return 0
	}
	if lower(profile.PreferredRegions[0]) == region {
		return regionPrimary
	}
	for _, r := range profile.PreferredRegions[1:] {
		if lower(r) == region {
			return regionSecondary
		}
	}
	return 0
}

func styleScore(profile *Profile, d Destination) float64 {
	if profile == nil || profile.TravelStyle == nil {
		return 0
	}
	style := profile.TravelStyle

	var score float64
	if want, ok := expectedCrowd[style.CrowdTolerance]; ok {
		score += proximity(crowdOrder, string(want), lower(string(d.CrowdLevel)))
	}
	if style.ActivityIntensity != "" {
		score += proximity(activityOrder, lower(string(style.ActivityIntensity)), lower(string(d.ActivityLevel)))
	}
	if style.complete() && overlaps(style.AccommodationTypes, d.AccommodationTypes) {
		score += accommodationBonus
	}
	return score
}

// proximity awards styleExact for equal positions on an ordered scale and
// styleAdjacent for neighbouring ones. Values off the scale score 0.
func proximity(order []string, want, have string) float64 {
	wi, hi := indexOf(order, want), indexOf(order, have)
	if wi < 0 || hi < 0 {
		return 0
	}
	switch wi - hi {
	case 0:
		return styleExact
	case 1, -1:
		return styleAdjacent
	default:
		return 0
	}
}

func indexOf(order []string, v string) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return -1
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if lower(x) != "" && lower(x) == lower(y) {
				return true
			}
		}
	}
	return false
}

func familyScore(profile *Profile, d Destination) float64 {
	if profile != nil && profile.TravelerType == TravelerFamily && d.FamilyFriendly {
		return familyBonus
	}
	return 0
}
