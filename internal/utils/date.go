package utils

import (
	"errors"
	"time"
)

// DateLayout is the only accepted wire format for calendar dates.
const DateLayout = "2006-01-02"

var errDateFormat = errors.New("date must use YYYY-MM-DD")

// IsValidDate reports whether s is a real calendar date written exactly as
// YYYY-MM-DD.  Out-of-range months and days (including Feb 29 on non-leap
// years) are rejected.
func IsValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, errDateFormat
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errDateFormat
	}
	return t, nil
}

// IsFutureDate reports whether the date s lies after the calendar day of now.
// s must already be a valid date.
func IsFutureDate(s string, now time.Time) bool {
	return s > now.Format(DateLayout)
}
