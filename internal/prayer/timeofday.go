package prayer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute precision and no date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At builds a TimeOfDay, wrapping values outside a single day.
func At(hour, minute int) TimeOfDay {
	return fromMinutes(hour*60 + minute)
}

// FromHours converts fractional hours to a TimeOfDay. The value is first
// normalized into [0,24); seconds are truncated.
func FromHours(h float64) TimeOfDay {
	h = h - 24*math.Floor(h/24)
	hour := int(math.Floor(h))
	minute := int(math.Floor((h - float64(hour)) * 60))
	if minute > 59 {
		minute = 59
	}
	if hour > 23 {
		hour = 23
	}
	return TimeOfDay{Hour: hour, Minute: minute}
}

// Of returns the time of day of t in t's location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseTimeOfDay parses "15:02", "15:02:00" or "15:02 (WIB)".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %q", raw)
	}

	hour, err := parseDigits(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	min, err := parseDigits(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if len(parts) == 3 {
		sec, err := parseDigits(parts[2])
		if err != nil || sec > 59 {
			return TimeOfDay{}, fmt.Errorf("invalid seconds in %q", raw)
		}
	}
	if hour > 23 || min > 59 {
		return TimeOfDay{}, fmt.Errorf("time out of range: %q", raw)
	}

	return TimeOfDay{Hour: hour, Minute: min}, nil
}

// parseDigits accepts one or two ASCII digits and nothing else.
func parseDigits(part string) (int, error) {
	if part == "" || len(part) > 2 {
		return 0, fmt.Errorf("want 1-2 digits, got %q", part)
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in %q", part)
		}
	}
	return strconv.Atoi(part)
}

func fromMinutes(m int) TimeOfDay {
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Add shifts t by d, wrapping around midnight. Sub-minute parts are dropped.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return fromMinutes(t.Minutes() + int(d/time.Minute))
}

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

// Equal reports whether t and o are the same minute.
func (t TimeOfDay) Equal(o TimeOfDay) bool {
	return t.Minutes() == o.Minutes()
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// Format renders t with a time layout such as "15:04" or "3:04 PM".
func (t TimeOfDay) Format(layout string) string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format(layout)
}

// String renders t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
