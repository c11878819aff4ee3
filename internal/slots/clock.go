package slots

import (
	"encoding/json"
	"fmt"
	"time"

	"fieldservice-backend/internal/parse"
)

// Clock is a local wall-clock time expressed in minutes since midnight.
type Clock int

// ParseClock accepts "09:00" or "9:00 AM" style input.
func ParseClock(s string) (Clock, error) {
	m, err := parse.Clock(s)
	if err != nil {
		return 0, err
	}
	return Clock(m), nil
}

// At builds a Clock from an hour and minute.
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// Add returns c shifted by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// String renders c as "15:04".
func (c Clock) String() string {
	return parse.HHMM(int(c))
}

// Label renders c as a 12-hour string such as "9:00 AM".
func (c Clock) Label() string {
	return parse.Label(int(c))
}

// On returns the instant c falls on for the calendar day of date, in date's
// location.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(c) * time.Minute)
}

// MarshalJSON encodes c as "15:04".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts any form ParseClock understands.
func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("clock must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
