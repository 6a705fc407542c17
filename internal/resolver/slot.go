package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

// Slot holds the current schedule. Each request takes a sequence number from
// Begin; a completion is applied only when its number is newer than the one
// already applied, so a slow stale fetch never overwrites a newer selection.
type Slot struct {
	next atomic.Uint64

	mu      sync.RWMutex
	applied uint64
	current *Result
}

// Begin reserves the sequence number for a new request.
func (s *Slot) Begin() uint64 {
	return s.next.Add(1)
}

// Apply stores res if seq is newer than the last applied request.
func (s *Slot) Apply(seq uint64, res Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.current = &res
	return true
}

// Current returns the applied result, if any.
func (s *Slot) Current() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Result{}, false
	}
	return *s.current, true
}

// Applied returns the sequence number of the current result.
func (s *Slot) Applied() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// Completion reports how an asynchronous request ended.
type Completion struct {
	Seq     uint64
	Result  Result
	Err     error
	Applied bool
}

// Refresher runs resolutions on a bounded worker pool and applies them to a
// Slot.
type Refresher struct {
	resolver *Resolver
	slot     *Slot
	pool     *ants.Pool
	log      *logging.Logger
	onApply  func(Result)
}

// NewRefresher starts a pool of size workers. onApply, if set, runs on the
// worker after a result has been applied.
func NewRefresher(r *Resolver, slot *Slot, size int, log *logging.Logger, onApply func(Result)) (*Refresher, error) {
	if size < 1 {
		size = 2
	}
	if log == nil {
		log = logging.Default()
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p any) {
		log.Error("schedule refresh panicked", "panic", p)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create refresh pool")
	}
	return &Refresher{resolver: r, slot: slot, pool: pool, log: log, onApply: onApply}, nil
}

// Request resolves loc/date in the background. The returned channel receives
// exactly one Completion.
func (f *Refresher) Request(ctx context.Context, loc locations.Location, date time.Time) (uint64, <-chan Completion, error) {
	seq := f.slot.Begin()
	done := make(chan Completion, 1)

	err := f.pool.Submit(func() {
		res, err := f.resolver.Resolve(ctx, loc, date)
		c := Completion{Seq: seq, Result: res, Err: err}
		if err == nil {
			c.Applied = f.slot.Apply(seq, res)
			if !c.Applied {
				f.log.Debug("discarding stale schedule", "seq", seq, "location", loc.ID)
			} else if f.onApply != nil {
				f.onApply(res)
			}
		}
		done <- c
	})
	if err != nil {
		return seq, nil, errors.Wrap(err, "submit refresh")
	}
	return seq, done, nil
}

// Release stops the pool.
func (f *Refresher) Release() {
	f.pool.Release()
}
