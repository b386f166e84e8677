package entities

import (
	"strings"
	"time"
)

// Accepted date layouts, tried in order. Everything is collapsed to the calendar day;
// no time-of-day survives normalization.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// NormalizeDate collapses a date in any accepted layout to the canonical YYYY-MM-DD key
// used by slots and orders. Returns "" when the input is empty or unparseable.
func NormalizeDate(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
