// Package phase classifies a moment of the day against a schedule: which
// interval it falls in, and how long until the next obligatory prayer.
package phase

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
)

// UpcomingThreshold is how close the next prayer must be to count as
// upcoming.
const UpcomingThreshold = 20

const minutesPerDay = 24 * 60

type Phase int

const (
	Shubuh Phase = iota
	WaitDhuha
	Dhuha
	Dhuhur
	Ashar
	Maghrib
	Isya
)

var labels = [...]string{
	Shubuh:    "Shubuh",
	WaitDhuha: "Tunggu Dhuha",
	Dhuha:     "Dhuha",
	Dhuhur:    "Dhuhur",
	Ashar:     "Ashar",
	Maghrib:   "Maghrib",
	Isya:      "Isya",
}

func (p Phase) String() string {
	if p < Shubuh || p > Isya {
		return "Unknown"
	}
	return labels[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Obligatory is false for the Dhuha window and the gap before it.
func (p Phase) Obligatory() bool {
	return p != WaitDhuha && p != Dhuha
}

// StatusText renders "Ashar (Wajib)" or "Dhuha (Sunnah)".
func (p Phase) StatusText() string {
	kind := "Sunnah"
	if p.Obligatory() {
		kind = "Wajib"
	}
	return fmt.Sprintf("%s (%s)", p, kind)
}

// interval is [start, end) with the next obligatory prayer it points to.
type interval struct {
	phase      Phase
	start, end string
	next       string
}

var intervals = []interval{
	{Shubuh, prayer.Fajr, prayer.Sunrise, prayer.Dhuhr},
	{WaitDhuha, prayer.Sunrise, prayer.Dhuha, prayer.Dhuhr},
	{Dhuha, prayer.Dhuha, prayer.Dhuhr, prayer.Dhuhr},
	{Dhuhur, prayer.Dhuhr, prayer.Asr, prayer.Asr},
	{Ashar, prayer.Asr, prayer.Maghrib, prayer.Maghrib},
	{Maghrib, prayer.Maghrib, prayer.Isha, prayer.Isha},
}

// Result describes one evaluation.
type Result struct {
	Phase    Phase
	NextKey  string
	NextName string
	NextTime prayer.TimeOfDay
	// MinutesToNext is never negative; after Isha it counts into tomorrow.
	MinutesToNext int
}

// Resolve evaluates now, converted to the schedule's time zone. It returns
// nil when s is nil.
func Resolve(now time.Time, s *prayer.Schedule) *Result {
	if s == nil {
		return nil
	}
	return ResolveAt(prayer.Of(now.In(s.Date.Location())), s)
}

// ResolveAt evaluates a wall-clock time against s.
func ResolveAt(now prayer.TimeOfDay, s *prayer.Schedule) *Result {
	if s == nil {
		return nil
	}

	current, next := Isya, prayer.Fajr
	for _, iv := range intervals {
		if within(now, s.Time(iv.start), s.Time(iv.end)) {
			current, next = iv.phase, iv.next
			break
		}
	}

	target := s.Time(next)
	return &Result{
		Phase:         current,
		NextKey:       next,
		NextName:      prayer.DisplayNames[next],
		NextTime:      target,
		MinutesToNext: minutesUntil(now, target),
	}
}

func within(now, start, end prayer.TimeOfDay) bool {
	return !now.Before(start) && now.Before(end)
}

func minutesUntil(now, target prayer.TimeOfDay) int {
	return (target.Minutes() - now.Minutes() + minutesPerDay) % minutesPerDay
}

// NextAt returns the instant of the next prayer relative to now.
func (r *Result) NextAt(now time.Time) time.Time {
	return now.Truncate(time.Minute).Add(time.Duration(r.MinutesToNext) * time.Minute)
}

// State is the presentation state of the next prayer.
type State string

const (
	Current  State = "CURRENT"
	Upcoming State = "UPCOMING"
	Waiting  State = "WAITING"
)

// State is UPCOMING within the threshold, otherwise CURRENT inside an
// obligatory phase and WAITING elsewhere.
func (r *Result) State() State {
	switch {
	case r.MinutesToNext <= UpcomingThreshold:
		return Upcoming
	case r.Phase.Obligatory():
		return Current
	default:
		return Waiting
	}
}

// CountdownLabel renders "Ashar dalam 2j 15m".
func (r *Result) CountdownLabel() string {
	h, m := r.MinutesToNext/60, r.MinutesToNext%60
	if h > 0 {
		return fmt.Sprintf("%s dalam %dj %dm", r.NextName, h, m)
	}
	return fmt.Sprintf("%s dalam %dm", r.NextName, m)
}

// Remaining renders "2 jam 15 menit lagi", "15 menit lagi" or "Sekarang".
func (r *Result) Remaining() string {
	if r.MinutesToNext <= 0 {
		return "Sekarang"
	}
	if r.MinutesToNext < 60 {
		return fmt.Sprintf("%d menit lagi", r.MinutesToNext)
	}
	return fmt.Sprintf("%d jam %d menit lagi", r.MinutesToNext/60, r.MinutesToNext%60)
}
