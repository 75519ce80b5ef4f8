package match

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	shortTripBonus  = 8
	mediumTripBonus = 6
	longTripBonus   = 5
)

var travelTimeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes)\b`)

// ParseTravelHours extracts a duration in hours from free text such as
// "1 hour", "2.5 hours", "45 minutes" or "1 hour 30 minutes". It returns
// false when nothing recognisable is found.
func ParseTravelHours(text string) (float64, bool) {
	matches := travelTimeRe.FindAllStringSubmatch(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return 0, false
	}

	var hours float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if strings.HasPrefix(m[2], "m") {
			v /= 60
		}
		hours += v
	}
	return hours, true
}

// Hours returns the destination's travel time from the capital in
// hours, preferring the explicit field over parsing the text.
func (d Destination) Hours() (float64, bool) {
	if d.TravelHours != nil {
		return *d.TravelHours, true
	}
	return ParseTravelHours(d.TravelTimeFromCapital)
}

func (e *Engine) durationScore(profile *Profile, d Destination) float64 {
	if profile == nil || profile.TravelDurationDays <= 0 {
		return 0
	}
	days := profile.TravelDurationDays

	if e.durationMode == DurationSubstring {
		text := d.TravelTimeFromCapital
		switch {
		case days <= 3 && strings.Contains(text, "1"):
			return shortTripBonus
		case days <= 5 && strings.Contains(text, "2"):
			return mediumTripBonus
		case days > 7:
			return longTripBonus
		}
		return 0
	}

	hours, ok := d.Hours()
	switch {
	case ok && days <= 3 && hours < 2:
		return shortTripBonus
	case ok && days <= 5 && hours < 3:
		return mediumTripBonus
	case days > 7:
		return longTripBonus
	}
	return 0
}
