package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/geo"
)

const samplePayload = `{"status":true,"data":{"jadwal":{"subuh":"04:37","dzuhur":"12:05","ashar":"15:14","maghrib":"18:12","isya":"19:21"}}}`

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func memStore(t *testing.T) (*FileStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	c, err := NewWithFs(fs, "/cache")
	if err != nil {
		t.Fatalf("NewWithFs: %v", err)
	}
	return c, fs
}

// ----- payloads -----

func TestFileStore_SaveAndLoad(t *testing.T) {
	c, fs := memStore(t)

	if got := c.Load("3101", day); got != nil {
		t.Fatalf("empty cache returned %q", got)
	}
	if err := c.Save("3101", day, []byte(samplePayload)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := c.Load("3101", day); string(got) != samplePayload {
		t.Errorf("Load = %q, want payload", got)
	}

	ok, _ := afero.Exists(fs, "/cache/prayer_3101_2025-03-01.json")
	if !ok {
		t.Error("expected prayer_3101_2025-03-01.json on disk")
	}
	if tmp, _ := afero.Exists(fs, "/cache/prayer_3101_2025-03-01.json.tmp"); tmp {
		t.Error("temp file left behind")
	}
}

func TestFileStore_KeyedByLocationAndDate(t *testing.T) {
	c, _ := memStore(t)
	_ = c.Save("3101", day, []byte(samplePayload))

	if got := c.Load("3201", day); got != nil {
		t.Error("different location must miss")
	}
	if got := c.Load("3101", day.AddDate(0, 0, 1)); got != nil {
		t.Error("different date must miss")
	}
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	c, _ := memStore(t)
	_ = c.Save("3101", day, []byte("old"))
	_ = c.Save("3101", day, []byte("new"))
	if got := string(c.Load("3101", day)); got != "new" {
		t.Errorf("Load = %q, want new", got)
	}
}

func TestFileStore_SanitizesLocationID(t *testing.T) {
	c, fs := memStore(t)
	if err := c.Save("../etc/passwd", day, []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := afero.Exists(fs, "/cache/prayer_.._etc_passwd_2025-03-01.json"); !ok {
		t.Error("location id should be flattened into the cache directory")
	}
	if got := c.Load("../etc/passwd", day); string(got) != "x" {
		t.Errorf("Load = %q", got)
	}
}

func TestFileStore_EmptyFileIsMiss(t *testing.T) {
	c, fs := memStore(t)
	_ = afero.WriteFile(fs, "/cache/prayer_3101_2025-03-01.json", nil, 0o644)
	if got := c.Load("3101", day); got != nil {
		t.Errorf("empty file should be a miss, got %q", got)
	}
}

func TestNew_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir = %q", c.Dir())
	}
	if err := c.Save("3101", day, []byte(samplePayload)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := c.Load("3101", day); string(got) != samplePayload {
		t.Error("round trip on disk failed")
	}
}

// ----- geolocation -----

func TestGeoCache(t *testing.T) {
	c, _ := memStore(t)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if c.LoadGeo() != nil {
		t.Fatal("empty geo cache should miss")
	}

	pos := &geo.Position{Latitude: -6.9, Longitude: 107.6, City: "Bandung", Timezone: "Asia/Jakarta"}
	if err := c.SaveGeo(pos); err != nil {
		t.Fatalf("SaveGeo: %v", err)
	}

	got := c.LoadGeo()
	if got == nil || got.City != "Bandung" || got.Latitude != -6.9 {
		t.Fatalf("LoadGeo = %+v", got)
	}

	now = now.Add(25 * time.Hour)
	if c.LoadGeo() != nil {
		t.Error("geo cache older than 24h should miss")
	}
}

func TestGeoCache_Corrupt(t *testing.T) {
	c, fs := memStore(t)
	_ = afero.WriteFile(fs, "/cache/geolocation.json", []byte("{nope"), 0o644)
	if c.LoadGeo() != nil {
		t.Error("corrupt geo cache should miss")
	}
}

// ----- sqlite -----

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	var store Store = s
	if store.Load("3101", day) != nil {
		t.Fatal("empty database should miss")
	}
	if err := store.Save("3101", day, []byte("old")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save("3101", day, []byte(samplePayload)); err != nil {
		t.Fatalf("Save (upsert): %v", err)
	}
	if got := string(store.Load("3101", day)); got != samplePayload {
		t.Errorf("Load = %q", got)
	}
	if store.Load("3101", day.AddDate(0, 0, 1)) != nil {
		t.Error("other date must miss")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := string(reopened.Load("3101", day)); got != samplePayload {
		t.Error("payload should survive reopen")
	}
}
