package policy

import (
	"regexp"
	"strconv"
	"strings"
)

const DefaultDurationHours = 2.0

const (
	fullDayHours = 8.0
	halfDayHours = 4.0
)

var durationRe = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(?:-|\x{2013}|to)\s*(\d+(?:\.\d+)?))?\s*([a-zA-Z]*)`)

// ParseDurationHours reads a free-text tour duration such as "3 hours",
// "90 minutes", "2-3 hours" or "Full day". A range counts as its upper bound.
// Text without a usable number falls back to DefaultDurationHours.
func ParseDurationHours(s string) float64 {
	lower := strings.ToLower(strings.TrimSpace(s))

	m := durationRe.FindStringSubmatch(lower)
	if m == nil {
		return namedDuration(lower)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultDurationHours
	}
	if m[2] != "" {
		if upper, err := strconv.ParseFloat(m[2], 64); err == nil && upper > value {
			value = upper
		}
	}
	if value <= 0 {
		return DefaultDurationHours
	}

	unit := m[3]
	switch {
	case strings.HasPrefix(unit, "min"):
		return value / 60
	case strings.HasPrefix(unit, "day"):
		return value * 24
	case unit == "full":
		return value * fullDayHours
	case unit == "half":
		return value * halfDayHours
	}
	return value
}

func namedDuration(lower string) float64 {
	switch {
	case strings.Contains(lower, "half day"), strings.Contains(lower, "half-day"):
		return halfDayHours
	case strings.Contains(lower, "full day"), strings.Contains(lower, "full-day"), strings.Contains(lower, "all day"):
		return fullDayHours
	}
	return DefaultDurationHours
}
