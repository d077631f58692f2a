// Package timeutil is the single entry point for turning user-supplied date
// strings into absolute instants. Inputs that carry an explicit UTC offset are
// taken as-is; inputs without one are interpreted as wall time in the fixed
// reference timezone, never in the caller's locale. Stored values are always
// normalized to UTC.
package timeutil

import (
	"time"

	appErrors "github.com/certpath/certpath-api/pkg/errors"
)

// Layouts carrying an explicit offset; matching inputs are already absolute.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04-07:00",
	"2006-01-02 15:04:05 -0700",
}

// Naive layouts; matching inputs need reference-timezone interpretation.
var referenceLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// DisplayLayout is how instants are rendered to administrators.
const DisplayLayout = "02/01/2006 15:04:05"

// ParseInstant parses raw into an absolute UTC instant using the rule above.
// reference must be the configured reference location.
func ParseInstant(raw string, reference *time.Location) (time.Time, error) {
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, raw, reference); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrUnparseableDate, "unrecognized date format: "+raw)
}

// Format renders an absolute instant as reference-timezone wall time with
// seconds precision.
func Format(t time.Time, reference *time.Location) string {
	return t.In(reference).Format(DisplayLayout)
}

// LoadLocation resolves the configured reference timezone, falling back to
// UTC when the name is empty or unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
