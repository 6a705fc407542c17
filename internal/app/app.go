// Package app wires configuration into the running pieces: directory, cache,
// remote client and resolver. Commands build one App per invocation.
package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/api"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/cache"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/config"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/geo"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/ramadan"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resilience"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resolver"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/solar"
)

const sqliteFile = "cache.db"

// Options configures New. Only Config is required.
type Options struct {
	Config *config.Config
	Logger *logging.Logger
	// Offline disables the remote tier regardless of config.
	Offline bool
	// Now defaults to time.Now.
	Now func() time.Time
	// Detect defaults to geo.Detect.
	Detect func(ctx context.Context) (*geo.Position, error)
}

// App is the application root.
type App struct {
	Config    *config.Config
	Log       *logging.Logger
	Directory *locations.Directory
	Location  locations.Location
	Resolver  *resolver.Resolver
	Hijri     *hijri.Converter
	Ramadan   *ramadan.Service

	files   *cache.FileStore
	store   cache.Store
	closers []func() error
	now     func() time.Time
	detect  func(ctx context.Context) (*geo.Position, error)
}

// New builds an App. Cache failures degrade to no cache; nothing short of a
// missing config is fatal.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: nil config")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Detect == nil {
		opts.Detect = geo.Detect
	}

	cfg := opts.Config
	a := &App{
		Config:    cfg,
		Log:       opts.Logger,
		Directory: locations.Open(cfg.LocationsFile, opts.Logger),
		Hijri:     hijri.NewConverter(),
		Ramadan:   ramadan.NewService(opts.Now),
		now:       opts.Now,
		detect:    opts.Detect,
	}

	a.openCache()

	ropts := resolver.Options{
		Timeout:   cfg.Timeout(api.DefaultTimeout),
		AsrFactor: solar.AsrFactor(cfg.AsrFactorOrDefault(int(solar.AsrStandard))),
		Logger:    a.Log,
	}
	if a.store != nil {
		ropts.Store = a.store
	}
	if cfg.RemoteEnabled() && !opts.Offline {
		client := api.NewClient(ropts.Timeout)
		if cfg.RemoteURL != "" {
			client.BaseURL = cfg.RemoteURL
		}
		ropts.Fetcher = client
		ropts.Breaker = resilience.NewBreaker(resilience.DefaultFailureThreshold, resilience.DefaultOpenTimeout)
	}
	a.Resolver = resolver.New(ropts)

	a.Location = a.SelectLocation(ctx, cfg.Location)
	return a, nil
}

func (a *App) openCache() {
	files, err := cache.New(a.Config.CacheDir)
	if err != nil {
		a.Log.Warn("cache disabled", "err", err)
		return
	}
	a.files = files

	if a.Config.CacheBackend != "sqlite" {
		a.store = files
		return
	}
	db, err := cache.OpenSQLite(filepath.Join(files.Dir(), sqliteFile))
	if err != nil {
		a.Log.Warn("sqlite cache unavailable, using files", "err", err)
		a.store = files
		return
	}
	a.store = db
	a.closers = append(a.closers, db.Close)
}

// Now returns the current time from the injected clock.
func (a *App) Now() time.Time {
	return a.now()
}

// SelectLocation maps a configured reference to a directory record. "auto"
// uses IP geolocation; anything unknown falls back to the default location
// with a warning.
func (a *App) SelectLocation(ctx context.Context, ref string) locations.Location {
	if strings.EqualFold(strings.TrimSpace(ref), config.LocationAuto) {
		loc, err := a.autoLocate(ctx)
		if err == nil {
			return loc
		}
		a.Log.Warn("automatic location failed, using default", "err", err)
		return a.Directory.Default()
	}

	loc, fellBack := a.Directory.Resolve(ref)
	if fellBack && strings.TrimSpace(ref) != "" {
		a.Log.Warn("unknown location, using default", "location", ref, "default", loc.DisplayName())
	}
	return loc
}

func (a *App) autoLocate(ctx context.Context) (locations.Location, error) {
	var pos *geo.Position
	if a.files != nil {
		pos = a.files.LoadGeo()
	}
	if pos == nil {
		p, err := a.detect(ctx)
		if err != nil {
			return locations.Location{}, err
		}
		pos = p
		if a.files != nil {
			if err := a.files.SaveGeo(pos); err != nil {
				a.Log.Debug("failed to cache geolocation", "err", err)
			}
		}
	}

	loc, km := a.Directory.Nearest(pos.Latitude, pos.Longitude)
	a.Log.Info("location detected", "city", pos.City, "nearest", loc.DisplayName(), "km", int(km))
	return loc, nil
}

// Schedule resolves the configured location for the calendar day of date.
func (a *App) Schedule(ctx context.Context, date time.Time) (resolver.Result, error) {
	return a.Resolver.Resolve(ctx, a.Location, date)
}

// Range resolves days consecutive days starting at from.
func (a *App) Range(ctx context.Context, from time.Time, days int) ([]resolver.Result, error) {
	return a.Resolver.ResolveRange(ctx, a.Location, from, days)
}

// Close releases the cache database, if any.
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = errors.CombineErrors(err, c())
	}
	a.closers = nil
	return err
}
