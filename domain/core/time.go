package core

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the layout used for dates in file names and titles
const DateFormat = "2006-01-02"

// dateLayouts are tried in order when parsing dates from ingested tables
var dateLayouts = []string{
	DateFormat,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// FormatDate renders a date with DateFormat
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate parses a date using the supported layouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DateRange returns the earliest and latest of the given dates
func DateRange(dates []time.Time) (start, end time.Time) {
	for i, d := range dates {
		if i == 0 || d.Before(start) {
			start = d
		}
		if i == 0 || d.After(end) {
			end = d
		}
	}
	return start, end
}
