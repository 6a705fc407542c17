// Package resolver turns a location and a date into a daily schedule.
//
// Three tiers are tried in order: the remote source, the offline cache, and
// the solar calculator. The first tier to produce a valid schedule wins and
// the result carries a tag naming it. Only a validated remote payload is
// written to the cache.
package resolver

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/api"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/cache"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resilience"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/solar"
)

var (
	// ErrInvalidLocation is the only way resolution fails as a whole.
	ErrInvalidLocation = errors.New("location coordinates are invalid")
	// ErrInvalidSchedule marks a payload that could not become a schedule.
	ErrInvalidSchedule = errors.New("payload does not describe a valid schedule")
)

const (
	imsakLead   = 10 * time.Minute
	dhuhaOffset = 15 * time.Minute
)

// Source names the tier a schedule came from.
type Source int

const (
	Remote Source = iota + 1
	Cached
	Computed
)

func (s Source) String() string {
	switch s {
	case Remote:
		return "Remote"
	case Cached:
		return "Cached"
	case Computed:
		return "Computed"
	default:
		return "Unknown"
	}
}

// MarshalText lets the tag appear as a word in JSON output.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is a resolved schedule and the tier that produced it.
type Result struct {
	Source   Source
	Location locations.Location
	Schedule *prayer.Schedule
	// Clamped lists calculator events saturated at extreme latitudes. It is
	// only set for Computed results.
	Clamped []string
}

// Fetcher retrieves raw payloads from the remote source.
type Fetcher interface {
	FetchSchedule(ctx context.Context, locationID string, date time.Time) ([]byte, error)
}

// Options configures a Resolver. Zero values disable the remote and cache
// tiers, leaving the calculator.
type Options struct {
	Fetcher   Fetcher
	Store     cache.Store
	Breaker   *resilience.Breaker
	Timeout   time.Duration
	AsrFactor solar.AsrFactor
	Logger    *logging.Logger
}

// Resolver is safe for concurrent use.
type Resolver struct {
	fetcher Fetcher
	store   cache.Store
	breaker *resilience.Breaker
	timeout time.Duration
	asr     solar.AsrFactor
	log     *logging.Logger
}

func New(opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = api.DefaultTimeout
	}
	if !opts.AsrFactor.Valid() {
		opts.AsrFactor = solar.AsrStandard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Resolver{
		fetcher: opts.Fetcher,
		store:   opts.Store,
		breaker: opts.Breaker,
		timeout: opts.Timeout,
		asr:     opts.AsrFactor,
		log:     opts.Logger,
	}
}

// Day returns midnight of date's calendar day in loc's time zone.
func Day(loc locations.Location, date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc.Zone())
}

// Resolve returns the schedule for loc on the calendar day of date. Only an
// invalid location makes it fail.
func (r *Resolver) Resolve(ctx context.Context, loc locations.Location, date time.Time) (Result, error) {
	day := Day(loc, date)
	log := r.log.With("location", loc.ID, "date", day.Format("2006-01-02"))

	if sched, err := r.fromRemote(ctx, loc, day); err == nil {
		return Result{Source: Remote, Location: loc, Schedule: sched}, nil
	} else if r.fetcher != nil {
		log.Warn("remote tier failed", "err", err)
	}

	if sched, err := r.fromCache(loc, day); err == nil {
		return Result{Source: Cached, Location: loc, Schedule: sched}, nil
	} else if r.store != nil {
		log.Debug("cache tier failed", "err", err)
	}

	sched, clamped, err := r.Compute(loc, day)
	if err != nil {
		return Result{}, err
	}
	if len(clamped) > 0 {
		log.Warn("hour angle clamped at this latitude", "events", clamped)
	}
	return Result{Source: Computed, Location: loc, Schedule: sched, Clamped: clamped}, nil
}

func (r *Resolver) fromRemote(ctx context.Context, loc locations.Location, day time.Time) (*prayer.Schedule, error) {
	if r.fetcher == nil {
		return nil, errors.New("remote disabled")
	}
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.fetcher.FetchSchedule(ctx, loc.ID, day)
	if err != nil {
		r.breaker.RecordFailure()
		return nil, err
	}
	sched, err := r.parse(loc, day, raw)
	if err != nil {
		r.breaker.RecordFailure()
		return nil, err
	}
	r.breaker.RecordSuccess()

	if r.store != nil {
		if err := r.store.Save(loc.ID, day, raw); err != nil {
			r.log.Warn("failed to write schedule cache", "location", loc.ID, "err", err)
		}
	}
	return sched, nil
}

func (r *Resolver) fromCache(loc locations.Location, day time.Time) (*prayer.Schedule, error) {
	if r.store == nil {
		return nil, errors.New("cache disabled")
	}
	raw := r.store.Load(loc.ID, day)
	if raw == nil {
		return nil, errors.New("cache miss")
	}
	return r.parse(loc, day, raw)
}

// parse validates a payload and fills the optional events it lacks.
func (r *Resolver) parse(loc locations.Location, day time.Time, raw []byte) (*prayer.Schedule, error) {
	timings, err := api.ParsePayload(raw)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidSchedule)
	}
	times, err := prayer.ParseTimings(timings)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidSchedule)
	}
	if err := r.complete(loc, day, times); err != nil {
		return nil, err
	}
	sched, err := prayer.NewSchedule(loc.ID, day, times)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidSchedule)
	}
	return sched, nil
}

func (r *Resolver) complete(loc locations.Location, day time.Time, times map[string]prayer.TimeOfDay) error {
	if _, ok := times[prayer.Imsak]; !ok {
		times[prayer.Imsak] = times[prayer.Fajr].Add(-imsakLead)
	}
	if _, ok := times[prayer.Sunrise]; !ok {
		if !loc.Valid() {
			return errors.Mark(errors.New("sunrise missing and coordinates unusable"), ErrInvalidSchedule)
		}
		st := solar.Compute(day, loc.Latitude, loc.Longitude, loc.UTCOffset(noon(day)), r.asr)
		times[prayer.Sunrise] = prayer.FromHours(st.Sunrise)
	}
	if _, ok := times[prayer.Dhuha]; !ok {
		times[prayer.Dhuha] = times[prayer.Sunrise].Add(dhuhaOffset)
	}
	return nil
}

// Compute runs the calculator tier alone. The second value names clamped
// events.
func (r *Resolver) Compute(loc locations.Location, date time.Time) (*prayer.Schedule, []string, error) {
	if !loc.Valid() {
		return nil, nil, errors.Wrapf(ErrInvalidLocation, "%s (%v, %v)", loc.ID, loc.Latitude, loc.Longitude)
	}
	day := Day(loc, date)
	st := solar.Compute(day, loc.Latitude, loc.Longitude, loc.UTCOffset(noon(day)), r.asr)

	fajr := prayer.FromHours(st.Fajr)
	sunrise := prayer.FromHours(st.Sunrise)
	times := map[string]prayer.TimeOfDay{
		prayer.Imsak:   fajr.Add(-imsakLead),
		prayer.Fajr:    fajr,
		prayer.Sunrise: sunrise,
		prayer.Dhuha:   sunrise.Add(dhuhaOffset),
		prayer.Dhuhr:   prayer.FromHours(st.Dhuhr),
		prayer.Asr:     prayer.FromHours(st.Asr),
		prayer.Maghrib: prayer.FromHours(st.Maghrib),
		prayer.Isha:    prayer.FromHours(st.Isha),
	}
	sched, err := prayer.NewSchedule(loc.ID, day, times)
	if err != nil {
		return nil, nil, err
	}
	return sched, st.Clamped, nil
}

// noon avoids picking the wrong offset on a DST transition day.
func noon(day time.Time) time.Time {
	return day.Add(12 * time.Hour)
}
