package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// missingMarkers are the strings bank exports use for "no value". The pandas
// artifacts nan/nat show up in datasets that went through a spreadsheet round
// trip.
var missingMarkers = map[string]struct{}{
	"":     {},
	"-":    {},
	"n/a":  {},
	"na":   {},
	"none": {},
	"null": {},
	"nan":  {},
	"nat":  {},
}

func isMissing(raw string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// dateLayouts are tried in order. ISO forms first, then slash dates with
// month-first preference and day-first fallback, then long forms. Layouts
// with single-digit reference values let Go accept unpadded components.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// parseDate coerces a cell into a calendar date, truncated to midnight UTC.
// Missing markers and unparseable values both come back nil; dormancy rules
// treat the two identically, so there is nothing to gain from telling them
// apart here.
func parseDate(raw string) *time.Time {
	cleaned := strings.TrimSpace(raw)
	if isMissing(cleaned) {
		return nil
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &day
	}
	return nil
}

// parseOptionalBool reads yes/no style cells. Unrecognized values come back
// nil rather than false so callers can distinguish "said no" from "never
// said".
func parseOptionalBool(raw string) *bool {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if isMissing(cleaned) {
		return nil
	}
	switch cleaned {
	case "yes", "y", "true", "t", "1", "attempted", "done":
		v := true
		return &v
	case "no", "n", "false", "f", "0", "not attempted", "pending":
		v := false
		return &v
	}
	return nil
}

// parseBalance coerces a money cell into a decimal. Thousands separators and
// currency markers are stripped first. Unparseable values yield an invalid
// NullDecimal, never an error.
func parseBalance(raw string) decimal.NullDecimal {
	cleaned := strings.TrimSpace(raw)
	if isMissing(cleaned) {
		return decimal.NullDecimal{}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "AED", "")
	cleaned = strings.ReplaceAll(cleaned, "aed", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: value, Valid: true}
}

// cleanText trims a cell and collapses missing markers to "".
func cleanText(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if isMissing(cleaned) {
		return ""
	}
	return cleaned
}
