package achievements

import "math"

// hourTier is one window of the time-of-day rule
type hourTier struct {
	id    string
	match func(hour int) bool
}

// Windows overlap at 5h and 6h. Only the first matching tier is credited.
var timeOfDayTiers = []hourTier{
	{id: IDNightOwl, match: func(hour int) bool { return hour >= 22 || hour <= 6 }},
	{id: IDEarlyBird, match: func(hour int) bool { return hour >= 5 && hour <= 8 }},
}

func matchTimeOfDay(hour int) (string, bool) {
	for _, tier := range timeOfDayTiers {
		if tier.match(hour) {
			return tier.id, true
		}
	}
	return "", false
}

// matchSpeedTier returns the first tier, fastest first, whose limit the
// elapsed time meets.
func matchSpeedTier(tiers []Definition, elapsedSeconds float64) (Definition, bool) {
	if math.IsNaN(elapsedSeconds) {
		return Definition{}, false
	}
	for _, def := range tiers {
		if elapsedSeconds <= def.Requirement {
			return def, true
		}
	}
	return Definition{}, false
}
