package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/notify"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resolver"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/scheduler"
)

const refreshWorkers = 2

// Daemon owns the tick scheduler. The schedule it dispatches against lives in
// a version-stamped slot that background refreshes write to.
type Daemon struct {
	app       *App
	slot      *resolver.Slot
	refresher *resolver.Refresher
	sched     *scheduler.Scheduler
	sinks     notify.Multi
	mqtt      *notify.MQTTSink

	mu        sync.Mutex
	loc       locations.Location
	requested time.Time
	computed  *prayer.Schedule
}

// NewDaemon wires the scheduler to a log sink plus, when mqtt_broker is set,
// an MQTT sink. extra sinks are appended.
func (a *App) NewDaemon(extra ...notify.Sink) (*Daemon, error) {
	d := &Daemon{app: a, slot: &resolver.Slot{}, loc: a.Location}

	d.sinks = notify.Multi{notify.NewLogSink(a.Log)}
	if broker := a.Config.MQTTBroker; broker != "" {
		host, _ := os.Hostname()
		sink, err := notify.DialMQTT(broker, fmt.Sprintf("jadwal-sholat-%s-%d", host, os.Getpid()), a.Config.MQTTTopic, a.Log)
		if err != nil {
			a.Log.Warn("MQTT sink disabled", "broker", broker, "err", err)
		} else {
			d.mqtt = sink
			d.sinks = append(d.sinks, sink)
		}
	}
	d.sinks = append(d.sinks, extra...)

	r, err := resolver.NewRefresher(a.Resolver, d.slot, refreshWorkers, a.Log, func(res resolver.Result) {
		a.Log.Info("schedule refreshed",
			"location", res.Location.ID,
			"date", res.Schedule.Date.Format("2006-01-02"),
			"source", res.Source.String())
	})
	if err != nil {
		return nil, err
	}
	d.refresher = r

	d.sched = scheduler.New(scheduler.Options{
		Sink:   d.sinks,
		Source: d.Schedule,
		Adzan:  a.Config.Adzan,
		Logger: a.Log,
		Hijri:  a.Hijri,
	})
	return d, nil
}

// Schedule returns the schedule for now's day in the active location.
// When the slot still holds another day or location, it requests a refresh
// and answers with the computed schedule until the refresh lands.
func (d *Daemon) Schedule(now time.Time) *prayer.Schedule {
	d.mu.Lock()
	defer d.mu.Unlock()

	loc := d.loc
	day := resolver.Day(loc, now.In(loc.Zone()))

	if cur, ok := d.slot.Current(); ok && cur.Location.ID == loc.ID && cur.Schedule.Date.Equal(day) {
		return cur.Schedule
	}

	if !d.requested.Equal(day) {
		d.request(loc, day)
	}

	if d.computed == nil || !d.computed.Date.Equal(day) || d.computed.LocationID != loc.ID {
		sched, _, err := d.app.Resolver.Compute(loc, day)
		if err != nil {
			d.app.Log.Error("cannot compute schedule", "location", loc.ID, "err", err)
			return nil
		}
		d.computed = sched
	}
	return d.computed
}

// SetLocation switches the active location. A refresh for the new location
// is requested at once, which supersedes any still in flight for the old
// one, and the minute gate is cleared so the current minute is checked
// again against the new schedule.
func (d *Daemon) SetLocation(loc locations.Location) {
	d.mu.Lock()
	if loc.ID == d.loc.ID {
		d.mu.Unlock()
		return
	}
	prev := d.loc
	d.loc = loc
	d.computed = nil
	d.requested = time.Time{}
	d.request(loc, resolver.Day(loc, d.app.Now().In(loc.Zone())))
	d.mu.Unlock()

	d.sched.Reset()
	d.app.Log.Info("location changed", "from", prev.ID, "to", loc.ID, "name", loc.DisplayName())
}

// Location returns the active location.
func (d *Daemon) Location() locations.Location {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loc
}

// request must be called with d.mu held.
func (d *Daemon) request(loc locations.Location, day time.Time) {
	d.requested = day
	if _, _, err := d.refresher.Request(context.Background(), loc, day); err != nil {
		d.app.Log.Warn("schedule refresh not started", "err", err)
	}
}

// Current exposes the last applied refresh, for status output.
func (d *Daemon) Current() (resolver.Result, bool) {
	return d.slot.Current()
}

// Tick forwards to the scheduler.
func (d *Daemon) Tick(now time.Time) bool {
	return d.sched.Tick(now)
}

// Run ticks until ctx is cancelled. The caller still owns Close.
func (d *Daemon) Run(ctx context.Context, interval time.Duration) {
	loc := d.Location()
	d.app.Log.Info("daemon started",
		"location", loc.DisplayName(),
		"zone", loc.ZoneLabel(),
		"sinks", len(d.sinks))
	d.sched.Run(ctx, interval)
	d.app.Log.Info("daemon stopping")
}

// Close stops the refresh pool and disconnects from the broker.
func (d *Daemon) Close() {
	d.refresher.Release()
	if d.mqtt != nil {
		d.mqtt.Close()
	}
}
