package validation

import "time"

// Layouts tried in order. Browsers send date inputs as 2006-01-02.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

const longDateLayout = "January 2, 2006"

// FormatLongDate renders raw as "January 5, 2025". Unparseable input is returned as-is.
func FormatLongDate(raw string) string {
	if t, ok := parseDate(raw); ok {
		return t.Format(longDateLayout)
	}
	return raw
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
