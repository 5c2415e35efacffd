package valueobjects

import (
	"errors"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a value object representing a calendar day in the user's recorded
// locale-day boundary. Scheduling works on whole days, never on instants, so
// a submission just before midnight and one just after land on different
// days without any timezone arithmetic here.
type Day struct {
	value string
}

// NewDayFromString parses a YYYY-MM-DD day
func NewDayFromString(s string) (Day, error) {
	if s == "" {
		return Day{}, errors.New("day cannot be empty")
	}
	if _, err := time.Parse(dayLayout, s); err != nil {
		return Day{}, errors.New("day must be in YYYY-MM-DD format")
	}
	return Day{value: s}, nil
}

// NewDayFromTime truncates a time to its calendar day
func NewDayFromTime(t time.Time) Day {
	return Day{value: t.Format(dayLayout)}
}

// Today returns the current calendar day in UTC
func Today() Day {
	return NewDayFromTime(time.Now().UTC())
}

// String returns the YYYY-MM-DD representation
func (d Day) String() string {
	return d.value
}

// IsZero checks if the Day is the zero value
func (d Day) IsZero() bool {
	return d.value == ""
}

// Equals checks if two Days are equal
func (d Day) Equals(other Day) bool {
	return d.value == other.value
}

// Before reports whether d precedes other
func (d Day) Before(other Day) bool {
	return d.value < other.value
}

// AddDays returns the day n calendar days later
func (d Day) AddDays(n int) Day {
	t, _ := time.Parse(dayLayout, d.value)
	return NewDayFromTime(t.AddDate(0, 0, n))
}

// DaysUntil returns the number of whole days from d to other, negative when
// other precedes d.
func (d Day) DaysUntil(other Day) int {
	a, _ := time.Parse(dayLayout, d.value)
	b, _ := time.Parse(dayLayout, other.value)
	return int(b.Sub(a).Hours() / 24)
}

// MarshalJSON implements json.Marshaler
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Day) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("Day must be a string")
	}
	parsed, err := NewDayFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
