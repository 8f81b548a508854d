package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLookbackDays is used when a lookback cannot be parsed or is zero.
const DefaultLookbackDays = 365

var lookbackPattern = regexp.MustCompile(`(\d+)\s*([ymd])`)

// ParseLookback converts strings such as "2y", "6m", "1y6m" or "90d" into a
// day count. Years count as 365 days and months as 30. A bare number is a
// day count.
func ParseLookback(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLookbackDays
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return DefaultLookbackDays
		}

		return n
	}

	days := 0

	for _, match := range lookbackPattern.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		switch match[2] {
		case "y":
			days += n * 365
		case "m":
			days += n * 30
		case "d":
			days += n
		}
	}

	if days <= 0 {
		return DefaultLookbackDays
	}

	return days
}

// LookbackStart returns the first day of the lookback window ending at end.
func LookbackStart(end time.Time, lookback string) time.Time {
	return end.AddDate(0, 0, -ParseLookback(lookback))
}
