// Package ramadan finds the start of the next Ramadan and renders a
// countdown to it.
package ramadan

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
)

// ErrUnavailable is returned when no start is found within the horizon.
var ErrUnavailable = errors.New("next Ramadan start not found within search horizon")

const (
	scanBack = 30
	scanStep = 10

	// StartHour and StartMinute mark the instant Ramadan is taken to begin
	// on its first day.
	StartHour   = 4
	StartMinute = 30
)

var horizonYears = 2

// Service caches the search result for the current calendar day. It is
// safe for concurrent use.
type Service struct {
	now func() time.Time

	mu      sync.Mutex
	checked string
	start   time.Time
	err     error
}

// NewService creates a Service reading the clock from now. A nil now uses
// time.Now.
func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{now: now}
}

// NextStart returns the first day of the next Ramadan, or of the current one
// when today is its first day. The result is midnight in now's location.
func (s *Service) NextStart() (time.Time, error) {
	today := midnight(s.now())
	key := today.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checked == key {
		return s.start, s.err
	}
	s.start, s.err = FindNextStart(today)
	s.checked = key
	return s.start, s.err
}

// FindNextStart searches forward from today.
func FindNextStart(today time.Time) (time.Time, error) {
	today = midnight(today)
	h := hijri.FromGregorian(today)

	target := h.Year
	if h.Month > hijri.Ramadan || (h.Month == hijri.Ramadan && h.Day > 1) {
		target++
	}

	limit := today.AddDate(horizonYears, 0, 0)
	for d := today.AddDate(0, 0, -scanBack); !d.After(limit); d = d.AddDate(0, 0, scanStep) {
		h := hijri.FromGregorian(d)
		if h.Year != target || h.Month != hijri.Ramadan {
			continue
		}
		for h.Day > 1 {
			d = d.AddDate(0, 0, -1)
			h = hijri.FromGregorian(d)
		}
		return d, nil
	}
	return time.Time{}, errors.Wrapf(ErrUnavailable, "hijri year %d", target)
}

// StartInstant is the moment the countdown runs to.
func (s *Service) StartInstant() (time.Time, error) {
	day, err := s.NextStart()
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(StartHour*time.Hour + StartMinute*time.Minute), nil
}

// InProgress reports whether today falls in Ramadan.
func (s *Service) InProgress() bool {
	return hijri.FromGregorian(s.now()).IsRamadan()
}

// Countdown renders the time left until the next Ramadan.
func (s *Service) Countdown() string {
	if s.InProgress() {
		return "Sedang berlangsung"
	}
	target, err := s.StartInstant()
	if err != nil {
		return "Data tidak tersedia"
	}
	return FormatCountdown(target.Sub(s.now()))
}

// FormatCountdown renders "X menit lagi", "X jam Y menit lagi" or
// "X hari Y jam lagi".
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60

	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d menit lagi", minutes)
	case d < 24*time.Hour:
		return fmt.Sprintf("%d jam %d menit lagi", hours, minutes)
	default:
		return fmt.Sprintf("%d hari %d jam lagi", days, hours)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
