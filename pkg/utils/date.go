package utils

import (
	"time"
)

// LoadLocation returns the named location, falling back to UTC when the name
// is empty or the tz database does not know it.
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

// ParseFlexibleTime accepts the timestamp layouts news providers emit.
func ParseFlexibleTime(value string) (*time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, true
		}
	}
	return nil, false
}
