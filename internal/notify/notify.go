// Package notify delivers scheduler output: audio cues and desktop-style
// notifications. Playback itself happens elsewhere; sinks only announce
// what should be played.
package notify

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

// Sink receives scheduler actions.
type Sink interface {
	// PlayReminder plays the cue announcing an event ten minutes ahead.
	PlayReminder(cue string) error
	// PlayOnEvent stops whatever is playing and plays cues in order.
	PlayOnEvent(cues ...string) error
	// PlayImsak plays the pre-dawn cue.
	PlayImsak(cue string) error
	Notify(title, body string) error
}

// LogSink writes every action to a logger and remembers the cue queue of the
// last call, which is what a player would be working through.
type LogSink struct {
	log *logging.Logger

	mu      sync.Mutex
	playing []string
}

func NewLogSink(log *logging.Logger) *LogSink {
	if log == nil {
		log = logging.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) PlayReminder(cue string) error {
	s.queue(false, cue)
	s.log.Info("reminder cue", "cue", cue)
	return nil
}

func (s *LogSink) PlayOnEvent(cues ...string) error {
	if cancelled := s.queue(true, cues...); len(cancelled) > 0 {
		s.log.Info("cancelled in-flight audio", "cues", cancelled)
	}
	s.log.Info("event cues", "cues", cues)
	return nil
}

func (s *LogSink) PlayImsak(cue string) error {
	s.queue(false, cue)
	s.log.Info("imsak cue", "cue", cue)
	return nil
}

func (s *LogSink) Notify(title, body string) error {
	s.log.Info("notification", "title", title, "body", body)
	return nil
}

// Playing returns the cues of the last play call.
func (s *LogSink) Playing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.playing...)
}

func (s *LogSink) queue(cancel bool, cues ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cancelled []string
	if cancel {
		cancelled = s.playing
	}
	s.playing = append([]string(nil), cues...)
	return cancelled
}

// Multi fans every call out to all sinks and joins their errors.
type Multi []Sink

func (m Multi) PlayReminder(cue string) error {
	return m.each(func(s Sink) error { return s.PlayReminder(cue) })
}

func (m Multi) PlayOnEvent(cues ...string) error {
	return m.each(func(s Sink) error { return s.PlayOnEvent(cues...) })
}

func (m Multi) PlayImsak(cue string) error {
	return m.each(func(s Sink) error { return s.PlayImsak(cue) })
}

func (m Multi) Notify(title, body string) error {
	return m.each(func(s Sink) error { return s.Notify(title, body) })
}

func (m Multi) each(fn func(Sink) error) error {
	var errs error
	for _, s := range m {
		if s == nil {
			continue
		}
		errs = errors.CombineErrors(errs, fn(s))
	}
	return errs
}
