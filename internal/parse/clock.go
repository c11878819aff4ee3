package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockRe = regexp.MustCompile(`(?i)^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

// MinutesPerDay bounds every clock value.
const MinutesPerDay = 24 * 60

// Clock parses a wall-clock string into minutes since midnight. Accepted
// forms are 24-hour ("09:00", "17:30", "9") and 12-hour ("9:00 AM",
// "12:30pm", "5 p.m.").
func Clock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unable to parse clock time: %q", raw)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unable to parse hour in %q: %w", raw, err)
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return 0, fmt.Errorf("unable to parse minute in %q: %w", raw, err)
		}
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute out of range in %q", raw)
	}

	if suffix := strings.ToLower(strings.ReplaceAll(m[3], ".", "")); suffix != "" {
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range for 12-hour clock in %q", raw)
		}
		// 12 AM is midnight, 12 PM is noon
		hour %= 12
		if suffix == "pm" {
			hour += 12
		}
	} else if hour > 23 {
		return 0, fmt.Errorf("hour out of range in %q", raw)
	}

	return hour*60 + minute, nil
}

// Label renders minutes since midnight as a 12-hour label, e.g. "9:00 AM".
func Label(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	hour, minute := minutes/60, minutes%60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, suffix)
}

// HHMM renders minutes since midnight as "15:04".
func HHMM(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
