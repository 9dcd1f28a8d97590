package propstore

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errNoMatch = errors.New("no match")

// parseNumber accepts plain integers and decimals. Values with leading zeros
// (part numbers like "007") stay strings so formatting survives a round trip.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errNoMatch
	}
	trimmed := strings.TrimPrefix(s, "-")
	if len(trimmed) > 1 && trimmed[0] == '0' && trimmed[1] != '.' {
		return 0, errNoMatch
	}
	return strconv.ParseFloat(s, 64)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700 MST", // time.Time default formatting
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoMatch
}
