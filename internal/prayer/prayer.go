package prayer

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Event keys of a daily schedule.
const (
	Imsak   = "imsak"
	Fajr    = "fajr"
	Sunrise = "sunrise"
	Dhuha   = "dhuha"
	Dhuhr   = "dhuhr"
	Asr     = "asr"
	Maghrib = "maghrib"
	Isha    = "isha"
)

// EventKeys lists every schedule key in chronological order.
var EventKeys = []string{Imsak, Fajr, Sunrise, Dhuha, Dhuhr, Asr, Maghrib, Isha}

// MandatoryKeys are the five obligatory prayers. A payload missing any of them
// is rejected.
var MandatoryKeys = []string{Fajr, Dhuhr, Asr, Maghrib, Isha}

// DisplayNames maps keys to the names shown to users.
var DisplayNames = map[string]string{
	Imsak:   "Imsak",
	Fajr:    "Subuh",
	Sunrise: "Terbit",
	Dhuha:   "Dhuha",
	Dhuhr:   "Dzuhur",
	Asr:     "Ashar",
	Maghrib: "Maghrib",
	Isha:    "Isya",
}

// ShortNames maps keys to one or two character abbreviations for status lines.
var ShortNames = map[string]string{
	Imsak:   "Im",
	Fajr:    "S",
	Sunrise: "T",
	Dhuha:   "Dh",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// aliases accepts the Indonesian spellings used by local providers.
var aliases = map[string]string{
	"subuh":  Fajr,
	"shubuh": Fajr,
	"terbit": Sunrise,
	"dzuhur": Dhuhr,
	"dhuhur": Dhuhr,
	"zuhur":  Dhuhr,
	"ashar":  Asr,
	"isya":   Isha,
}

// ErrMissingKey is returned when a mandatory prayer is absent or unparseable.
var ErrMissingKey = errors.New("schedule is missing a mandatory prayer")

// CanonicalKey maps a provider key (any case, English or Indonesian) to a
// schedule key.
func CanonicalKey(name string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[k]; ok {
		return a, true
	}
	if _, ok := DisplayNames[k]; ok {
		return k, true
	}
	return "", false
}

// Schedule is one day's resolved prayer times for a location.
// It is immutable; a new date or location produces a new Schedule.
type Schedule struct {
	LocationID string
	// Date is midnight of the civil day, in the location's time zone.
	Date  time.Time
	times map[string]TimeOfDay
}

// NewSchedule builds a Schedule. times must contain every key in EventKeys.
func NewSchedule(locationID string, date time.Time, times map[string]TimeOfDay) (*Schedule, error) {
	for _, k := range MandatoryKeys {
		if _, ok := times[k]; !ok {
			return nil, errors.Wrapf(ErrMissingKey, "key %q", k)
		}
	}
	for _, k := range EventKeys {
		if _, ok := times[k]; !ok {
			return nil, errors.Newf("schedule is missing %q", k)
		}
	}

	copied := make(map[string]TimeOfDay, len(EventKeys))
	for _, k := range EventKeys {
		copied[k] = times[k]
	}
	y, m, d := date.Date()
	return &Schedule{
		LocationID: locationID,
		Date:       time.Date(y, m, d, 0, 0, 0, 0, date.Location()),
		times:      copied,
	}, nil
}

// Time returns the time of day for key, or the zero value if key is unknown.
func (s *Schedule) Time(key string) TimeOfDay {
	return s.times[key]
}

// At returns the instant of key on the schedule's date.
func (s *Schedule) At(key string) time.Time {
	return s.times[key].On(s.Date)
}

// Map returns the schedule as key -> "HH:MM".
func (s *Schedule) Map() map[string]string {
	out := make(map[string]string, len(s.times))
	for k, v := range s.times {
		out[k] = v.String()
	}
	return out
}

// Prayers returns the selected events in chronological order. An empty
// selection returns every event.
func (s *Schedule) Prayers(selected ...string) []Prayer {
	if len(selected) == 0 {
		selected = EventKeys
	}
	want := make(map[string]bool, len(selected))
	for _, k := range selected {
		want[k] = true
	}

	var prayers []Prayer
	for _, k := range EventKeys {
		if !want[k] {
			continue
		}
		prayers = append(prayers, Prayer{Key: k, Name: DisplayNames[k], Time: s.At(k)})
	}
	return prayers
}

// Prayer is a single event at a concrete instant.
type Prayer struct {
	Key  string
	Name string
	Time time.Time
}

// ParseTimings reads a provider's key -> "HH:MM" map into schedule keys.
// Unknown keys are ignored. Every mandatory key must parse; optional keys
// that fail to parse are dropped so the caller can derive them. When a
// payload carries both a canonical key and an alias of it, the canonical
// key wins; between aliases the first in sorted order does.
func ParseTimings(raw map[string]string) (map[string]TimeOfDay, error) {
	canonical := make(map[string]string, len(raw))
	aliased := make(map[string]string, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		key, ok := CanonicalKey(name)
		if !ok {
			continue
		}
		if strings.ToLower(strings.TrimSpace(name)) == key {
			canonical[key] = raw[name]
		} else if _, seen := aliased[key]; !seen {
			aliased[key] = raw[name]
		}
	}

	out := make(map[string]TimeOfDay, len(EventKeys))
	for _, k := range EventKeys {
		value, ok := canonical[k]
		if !ok {
			if value, ok = aliased[k]; !ok {
				continue
			}
		}
		t, err := ParseTimeOfDay(value)
		if err != nil {
			if isMandatory(k) {
				return nil, errors.Wrapf(ErrMissingKey, "%s: %v", k, err)
			}
			continue
		}
		out[k] = t
	}

	for _, k := range MandatoryKeys {
		if _, ok := out[k]; !ok {
			return nil, errors.Wrapf(ErrMissingKey, "key %q", k)
		}
	}
	return out, nil
}

func isMandatory(key string) bool {
	for _, k := range MandatoryKeys {
		if k == key {
			return true
		}
	}
	return false
}

// NextPrayer finds the first prayer after now, or nil if all have passed.
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(p Prayer, now time.Time) time.Duration {
	return p.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
