package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/config"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/geo"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resolver"
)

const payload = `{"status":true,"data":{"id":3101,"jadwal":{
"imsak":"04:27","subuh":"04:37","terbit":"05:51","dhuha":"06:20",
"dzuhur":"12:05","ashar":"15:14","maghrib":"18:12","isya":"19:21"}}}`

var wib = time.FixedZone("WIB", 7*3600)

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 8, 0, 0, 0, wib)
}

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.CacheDir = t.TempDir()
	cfg.Remote = "off"
	return &cfg
}

func newApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	opts.Config = cfg
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	if opts.Detect == nil {
		opts.Detect = func(context.Context) (*geo.Position, error) {
			return nil, errors.New("no network in tests")
		}
	}
	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
}

func TestSchedule_OfflineComputes(t *testing.T) {
	a := newApp(t, offlineConfig(t), Options{})

	res, err := a.Schedule(context.Background(), a.Now())
	require.NoError(t, err)
	assert.Equal(t, resolver.Computed, res.Source)
	assert.Equal(t, "3101", res.Location.ID)
	assert.Equal(t, "12:05", res.Schedule.Time(prayer.Dhuhr).String())
}

func TestSelectLocation(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"", "3101"},
		{"3501", "3501"},
		{"surabaya", "3501"},
		{"Bandung", "3201"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			cfg := offlineConfig(t)
			cfg.Location = tt.ref
			a := newApp(t, cfg, Options{})
			assert.Equal(t, tt.want, a.Location.ID)
		})
	}
}

func TestSelectLocation_UnknownWarnsAndFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := offlineConfig(t)
	cfg.Location = "Atlantis"

	a := newApp(t, cfg, Options{Logger: logging.FromZap(zap.New(core))})

	assert.Equal(t, "3101", a.Location.ID)
	assert.Equal(t, 1, logs.FilterMessage("unknown location, using default").Len())
}

func TestSelectLocation_AutoUsesNearestAndMemo(t *testing.T) {
	var calls atomic.Int32
	detect := func(context.Context) (*geo.Position, error) {
		calls.Add(1)
		return &geo.Position{Latitude: -6.91, Longitude: 107.60, City: "Bandung"}, nil
	}
	cfg := offlineConfig(t)
	cfg.Location = config.LocationAuto

	a := newApp(t, cfg, Options{Detect: detect})
	assert.Equal(t, "3201", a.Location.ID)

	b := newApp(t, cfg, Options{Detect: detect})
	assert.Equal(t, "3201", b.Location.ID)
	assert.Equal(t, int32(1), calls.Load(), "second run should use the cached geolocation")
}

func TestSelectLocation_AutoFailureFallsBack(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Location = "AUTO"
	a := newApp(t, cfg, Options{})
	assert.Equal(t, "3101", a.Location.ID)
}

func TestSchedule_RemoteThenCachedOnSQLite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/sholat/jadwal/3101/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.CacheDir = t.TempDir()
	cfg.CacheBackend = "sqlite"
	cfg.RemoteURL = srv.URL

	online := newApp(t, &cfg, Options{})
	res, err := online.Schedule(context.Background(), fixedNow())
	require.NoError(t, err)
	assert.Equal(t, resolver.Remote, res.Source)
	assert.Equal(t, "04:37", res.Schedule.Time(prayer.Fajr).String())
	require.NoError(t, online.Close())

	offline := newApp(t, &cfg, Options{Offline: true})
	res, err = offline.Schedule(context.Background(), fixedNow())
	require.NoError(t, err)
	assert.Equal(t, resolver.Cached, res.Source)
	assert.Equal(t, "19:21", res.Schedule.Time(prayer.Isha).String())
}

func TestRange_Ordered(t *testing.T) {
	a := newApp(t, offlineConfig(t), Options{})
	results, err := a.Range(context.Background(), fixedNow(), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, 1+i, r.Schedule.Date.Day())
	}
}
