package match

import "strings"

// Interest is a travel-interest tag from the onboarding questionnaire.
type Interest string

const (
	InterestBeach           Interest = "beach"
	InterestCultureHistory  Interest = "cultureHistory"
	InterestDesertAdventure Interest = "desertAdventure"
	InterestFoodGastronomy  Interest = "foodGastronomy"
	InterestNightlife       Interest = "nightlife"
	InterestNatureMountains Interest = "natureMountains"
	InterestShopping        Interest = "shopping"
	InterestRelaxationSpa   Interest = "relaxationSpa"
)

// AllInterests returns the interest vocabulary in scoring order.
// Scoring always walks interests in this order so float sums are reproducible.
func AllInterests() []Interest {
	return []Interest{
		InterestBeach,
		InterestCultureHistory,
		InterestDesertAdventure,
		InterestFoodGastronomy,
		InterestNightlife,
		InterestNatureMountains,
		InterestShopping,
		InterestRelaxationSpa,
	}
}

// TravelerType describes who is travelling.
type TravelerType string

const (
	TravelerSolo    TravelerType = "solo"
	TravelerCouple  TravelerType = "couple"
	TravelerFamily  TravelerType = "family"
	TravelerFriends TravelerType = "friends"
)

// BudgetRange is the user's spending bracket.
type BudgetRange string

const (
	BudgetLow    BudgetRange = "low"
	BudgetMedium BudgetRange = "medium"
	BudgetHigh   BudgetRange = "high"
	BudgetLuxury BudgetRange = "luxury"
)

// CrowdTolerance is how the user feels about busy places.
type CrowdTolerance string

const (
	CrowdAvoid   CrowdTolerance = "avoid_crowds"
	CrowdNeutral CrowdTolerance = "neutral"
	CrowdPopular CrowdTolerance = "popular_spots"
)

// ActivityLevel is shared by the user's desired intensity and a destination's
// activity profile.
type ActivityLevel string

const (
	ActivityRelaxed     ActivityLevel = "relaxed"
	ActivityModerate    ActivityLevel = "moderate"
	ActivityAdventurous ActivityLevel = "adventurous"
)

// CrowdLevel is how busy a destination typically is.
type CrowdLevel string

const (
	CrowdLevelQuiet    CrowdLevel = "quiet"
	CrowdLevelModerate CrowdLevel = "moderate"
	CrowdLevelTouristy CrowdLevel = "touristy"
)

// Destination budget labels.
const (
	LabelBudget   = "Budget"
	LabelModerate = "Moderate"
	LabelPremium  = "Premium"
	LabelLuxury   = "Luxury"
)

// TravelStyle holds the logistics step of the questionnaire.
type TravelStyle struct {
	AccommodationTypes       []string       `json:"accommodationType" yaml:"accommodation_types" validate:"dive,required"`
	TransportationPreference []string       `json:"transportationPreference" yaml:"transportation_preference" validate:"dive,required"`
	CrowdTolerance           CrowdTolerance `json:"crowdTolerance" yaml:"crowd_tolerance" validate:"omitempty,oneof=avoid_crowds neutral popular_spots"`
	ActivityIntensity        ActivityLevel  `json:"activityIntensity" yaml:"activity_intensity" validate:"omitempty,oneof=relaxed moderate adventurous"`
}

// complete reports whether every input the accommodation bonus depends on
// was supplied.
func (s *TravelStyle) complete() bool {
	return s != nil &&
		s.CrowdTolerance != "" &&
		s.ActivityIntensity != "" &&
		len(s.AccommodationTypes) > 0
}

// Profile is a user's preference profile. Any field may be left empty; the
// engine scores missing inputs neutrally.
//
// The validate tags describe a complete questionnaire and are enforced when
// a profile is saved, never by the engine.
type Profile struct {
	TravelerType       TravelerType     `json:"travelerType" yaml:"traveler_type" validate:"required,oneof=solo couple family friends"`
	BudgetRange        BudgetRange      `json:"budgetRange" yaml:"budget_range" validate:"required,oneof=low medium high luxury"`
	TravelDurationDays int              `json:"travelDuration" yaml:"travel_duration_days" validate:"gte=1,lte=365"`
	PreferredRegions   []string         `json:"preferredRegions" yaml:"preferred_regions" validate:"min=1,dive,required"`
	Interests          map[Interest]int `json:"interests" yaml:"interests" validate:"required,dive,keys,oneof=beach cultureHistory desertAdventure foodGastronomy nightlife natureMountains shopping relaxationSpa,endkeys,gte=0,lte=5"`
	TravelStyle        *TravelStyle     `json:"travelStyle,omitempty" yaml:"travel_style,omitempty" validate:"omitempty"`
}

// Rating returns the clamped 0-5 rating for an interest. Nil profiles rate
// everything 0.
func (p *Profile) Rating(i Interest) int {
	if p == nil {
		return 0
	}
	r := p.Interests[i]
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// ActiveInterests returns the interests rated above zero, in vocabulary order.
func (p *Profile) ActiveInterests() []Interest {
	var out []Interest
	for _, i := range AllInterests() {
		if p.Rating(i) > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// CostRange is an estimated per-day spend in USD.
type CostRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Destination is a curated catalog entry.
type Destination struct {
	Name                  string        `json:"name" yaml:"name"`
	Region                string        `json:"region" yaml:"region"`
	Description           string        `json:"description,omitempty" yaml:"description"`
	BestFor               []string      `json:"bestFor" yaml:"best_for"`
	BudgetLevels          []string      `json:"budgetLevels" yaml:"budget_levels"`
	CrowdLevel            CrowdLevel    `json:"crowdLevel" yaml:"crowd_level"`
	ActivityLevel         ActivityLevel `json:"activityLevel" yaml:"activity_level"`
	AccommodationTypes    []string      `json:"accommodationTypes" yaml:"accommodation_types"`
	TravelTimeFromCapital string        `json:"travelTimeFromCapital" yaml:"travel_time"`
	TravelHours           *float64      `json:"travelHours,omitempty" yaml:"travel_hours,omitempty"`
	FamilyFriendly        bool          `json:"familyFriendly" yaml:"family_friendly"`
	EstimatedCost         CostRange     `json:"estimatedCost" yaml:"estimated_cost"`
	Attractions           []string      `json:"attractions,omitempty" yaml:"attractions"`
	Highlights            []string      `json:"highlights,omitempty" yaml:"highlights"`
	BestMonths            []int         `json:"bestMonths,omitempty" yaml:"best_months"`
	Location              Location      `json:"location" yaml:"location"`
	PlaceType             string        `json:"placeType,omitempty" yaml:"place_type"`
	ImageURL              string        `json:"imageUrl,omitempty" yaml:"-"`
}

// ExternalPlace is a candidate returned by a third-party places service.
type ExternalPlace struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"userRatingsTotal"`
	Types            []string `json:"types"`
	OpenNow          *bool    `json:"openNow,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Location         Location `json:"location"`
	Region           string   `json:"region,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// NormalizedPlace is an external place annotated with the interests it serves.
type NormalizedPlace struct {
	ExternalPlace
	Matches map[Interest]bool `json:"matches"`
}

// MatchedInterests lists the matched interests in vocabulary order.
func (n NormalizedPlace) MatchedInterests() []Interest {
	var out []Interest
	for _, i := range AllInterests() {
		if n.Matches[i] {
			out = append(out, i)
		}
	}
	return out
}

// Breakdown records each sub-score that went into a relevance score.
type Breakdown struct {
	Interest   float64 `json:"interest"`
	Budget     float64 `json:"budget,omitempty"`
	Region     float64 `json:"region,omitempty"`
	Style      float64 `json:"style,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Family     float64 `json:"family,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	Popularity float64 `json:"popularity,omitempty"`
	OpenNow    float64 `json:"openNow,omitempty"`
}

// Total is the unclamped sum of all sub-scores.
func (b Breakdown) Total() float64 {
	return b.Interest + b.Budget + b.Region + b.Style + b.Duration + b.Family +
		b.Rating + b.Popularity + b.OpenNow
}

// ScoredDestination is a catalog entry with its relevance score.
type ScoredDestination struct {
	Destination
	RelevanceScore int       `json:"relevanceScore"`
	Breakdown      Breakdown `json:"breakdown"`
}

// ScoredPlace is an external place with its relevance score.
type ScoredPlace struct {
	NormalizedPlace
	RelevanceScore int       `json:"relevanceScore"`
	Breakdown      Breakdown `json:"breakdown"`
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
