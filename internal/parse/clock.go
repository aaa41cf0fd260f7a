package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var clockRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)

// DateLayout is the wire and storage format of booking dates.
const DateLayout = "2006-01-02"

// Clock converts "HH:MM" into minutes from midnight. "24:00" is accepted as end of day.
func Clock(raw string) (int, error) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", raw)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("invalid clock time %q: out of range", raw)
	}
	return hours*60 + minutes, nil
}

// ClockRange parses a start/end pair and requires start < end.
func ClockRange(start, end string) (int, int, error) {
	s, err := Clock(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := Clock(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, fmt.Errorf("invalid range %s-%s: end must be after start", start, end)
	}
	return s, e, nil
}

// Date parses a YYYY-MM-DD booking date and returns it in canonical form.
func Date(raw string) (time.Time, string, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return d, d.Format(DateLayout), nil
}

// Weekday maps a date to the venue's weekday numbering, 0=Monday .. 6=Sunday.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// Cents converts a currency amount to integer cents, rounding half away from zero.
func Cents(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}
