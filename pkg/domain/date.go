package domain

import (
	"encoding/json"
	"time"

	dErrors "carewatch/pkg/domain-errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, dErrors.New(dErrors.CodeValidation, "date must be formatted as YYYY-MM-DD")
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
