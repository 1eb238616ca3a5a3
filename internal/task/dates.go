package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var ErrBadDate = errors.New("use YYYY-MM-DD or YYYY-MM-DD HH:MM")

// ParseDateTime reads a date with an optional time of day in loc. A bare
// date is midnight.
func ParseDateTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, ErrMissingDue
	}
	for _, layout := range []string{DateTimeLayout, "2006-01-02T15:04", DateLayout} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", v, ErrBadDate)
}

// ParseRecurrence returns nil for "none" and the empty string.
func ParseRecurrence(v string) (*Recurrence, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "none" || v == "no" || v == "n" {
		return nil, nil
	}
	f, err := ParseFrequency(v)
	if err != nil {
		return nil, err
	}
	return &Recurrence{Frequency: f}, nil
}

func FormatDateTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}
