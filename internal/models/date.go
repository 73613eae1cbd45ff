package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the canonical storage and wire format of a transaction date.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date with no time-of-day component.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp, which is
// truncated to its calendar date. The earliest accepted date is 0001-01-02,
// since 0001-01-01 is the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	var d Date
	if t, err := time.Parse(DateLayout, s); err == nil {
		d = Date{Time: t}
	} else {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Date{}, ErrInvalidDate
		}
		d = NewDate(t.Year(), t.Month(), t.Day())
	}
	if d.Year() < 1 || d.IsZero() {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

// String formats the date as "2006-01-02". The zero Date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
