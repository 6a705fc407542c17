// Package scheduler drives reminders and adzan cues from a periodic tick.
//
// Tick may be called many times a minute; the checks run at most once per
// calendar minute. The minute gate compares truncated timestamps, so a tick
// for a minute at or before the last processed one is ignored.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/fasting"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/notify"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
)

// Audio cues.
const (
	CueTarkhim      = "tarkhim_sebelum_adzan.wav"
	CueTarkhimIftar = "tarkhim_sebelum_buka_puasa.wav"
	CueSiren        = "Sirine Buka Puasa Dan Imsak.wav"
	DefaultAdzan    = "Adzan Makkah.mp3"

	// NoAdzan disables the adzan cue.
	NoAdzan = "Tidak ada"
)

// ReminderLead is how far ahead of a prayer the tarkhim plays.
const ReminderLead = 10 * time.Minute

// DefaultInterval is the tick cadence used by Run.
const DefaultInterval = time.Second

// Source returns the schedule that applies at now, or nil when none is
// available yet.
type Source func(now time.Time) *prayer.Schedule

// Options configures a Scheduler.
type Options struct {
	Sink   notify.Sink
	Source Source
	Adzan  string
	Logger *logging.Logger
	Hijri  *hijri.Converter
}

type Scheduler struct {
	sink   notify.Sink
	source Source
	adzan  string
	log    *logging.Logger
	hijri  *hijri.Converter

	mu        sync.Mutex
	last      time.Time
	processed bool
}

func New(opts Options) *Scheduler {
	if opts.Adzan == "" {
		opts.Adzan = DefaultAdzan
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Hijri == nil {
		opts.Hijri = hijri.NewConverter()
	}
	return &Scheduler{
		sink:   opts.Sink,
		source: opts.Source,
		adzan:  opts.Adzan,
		log:    opts.Logger,
		hijri:  opts.Hijri,
	}
}

// Reset forgets the last processed minute so the next Tick runs the checks
// even within the same minute. Call it after the location changes.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.processed = false
	s.last = time.Time{}
	s.mu.Unlock()
}

// Tick runs the checks if now starts a new minute. It reports whether they
// ran.
func (s *Scheduler) Tick(now time.Time) bool {
	minute := now.Truncate(time.Minute)

	s.mu.Lock()
	if s.processed && !minute.After(s.last) {
		s.mu.Unlock()
		return false
	}
	s.last = minute
	s.processed = true
	s.mu.Unlock()

	sched := s.source(now)
	if sched == nil {
		s.log.Debug("no schedule for tick", "at", minute)
		return true
	}

	local := now.In(sched.Date.Location())
	tod := prayer.Of(local)
	status := fasting.ClassifyHijri(s.hijri.Convert(sched.Date), sched.Date.Weekday())

	s.checkReminders(sched, tod, status)
	s.checkEvents(sched, tod, status)
	s.checkImsak(sched, tod, status)
	return true
}

// Run ticks every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

func (s *Scheduler) checkReminders(sched *prayer.Schedule, tod prayer.TimeOfDay, status fasting.Status) {
	for _, key := range prayer.MandatoryKeys {
		if !tod.Equal(sched.Time(key).Add(-ReminderLead)) {
			continue
		}
		name := prayer.DisplayNames[key]
		cue := CueTarkhim
		if key == prayer.Maghrib && status.IsRamadan() {
			cue = CueTarkhimIftar
		}

		s.log.Info("pre-prayer reminder", "prayer", key, "cue", cue)
		s.report(s.sink.Notify("Menuju "+name, "10 Menit lagi masuk waktu "+name))
		s.report(s.sink.PlayReminder(cue))
	}
}

func (s *Scheduler) checkEvents(sched *prayer.Schedule, tod prayer.TimeOfDay, status fasting.Status) {
	for _, key := range prayer.MandatoryKeys {
		if !tod.Equal(sched.Time(key)) {
			continue
		}
		name := prayer.DisplayNames[key]

		var cues []string
		if key == prayer.Maghrib && status.IsRamadan() {
			cues = append(cues, CueSiren)
		}
		if s.adzan != NoAdzan {
			cues = append(cues, s.adzan)
		}

		s.log.Info("prayer time", "prayer", key, "cues", cues)
		s.report(s.sink.Notify("Waktu "+name, "Telah masuk waktu "+name))
		s.report(s.sink.PlayOnEvent(cues...))
	}
}

func (s *Scheduler) checkImsak(sched *prayer.Schedule, tod prayer.TimeOfDay, status fasting.Status) {
	if !status.IsFastingDay() || !tod.Equal(sched.Time(prayer.Imsak)) {
		return
	}
	s.log.Info("imsak", "fasting", status)
	s.report(s.sink.Notify("Imsak", "Waktu Imsak telah tiba"))
	s.report(s.sink.PlayImsak(CueSiren))
}

func (s *Scheduler) report(err error) {
	if err != nil {
		s.log.Warn("notification sink failed", "err", err)
	}
}
