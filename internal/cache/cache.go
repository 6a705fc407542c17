// Package cache is the offline store for raw schedule payloads, keyed by
// (location, date), plus a small memo of the last IP geolocation.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/afero"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/geo"
)

const (
	payloadFile = "prayer_%s_%s.json" // location id, YYYY-MM-DD
	geoFile     = "geolocation.json"
	geoTTL      = 24 * time.Hour
)

// Store persists last-known-good payloads. Load returns nil on a miss;
// read errors are treated as misses.
type Store interface {
	Load(locationID string, date time.Time) []byte
	Save(locationID string, date time.Time, raw []byte) error
}

// FileStore keeps one JSON file per (location, date) under a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// GeoCacheEntry is a cached geolocation result.
type GeoCacheEntry struct {
	Position geo.Position `json:"position"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/jadwal-sholat.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "jadwal-sholat"), nil
}

// New creates a FileStore on the OS filesystem. An empty dir means DefaultDir.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs creates a FileStore on any afero filesystem.
func NewWithFs(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}
	return &FileStore{fs: fs, dir: dir, now: time.Now}, nil
}

// Dir returns the directory backing the store.
func (c *FileStore) Dir() string {
	return c.dir
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func (c *FileStore) payloadPath(locationID string, date time.Time) string {
	id := unsafeChars.ReplaceAllString(locationID, "_")
	return filepath.Join(c.dir, fmt.Sprintf(payloadFile, id, date.Format("2006-01-02")))
}

// Load returns the cached payload, or nil.
func (c *FileStore) Load(locationID string, date time.Time) []byte {
	data, err := afero.ReadFile(c.fs, c.payloadPath(locationID, date))
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

// Save writes the payload atomically through a temp file and rename.
func (c *FileStore) Save(locationID string, date time.Time, raw []byte) error {
	path := c.payloadPath(locationID, date)
	tmp := path + ".tmp"

	if err := afero.WriteFile(c.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("failed to commit cache file: %w", err)
	}
	return nil
}

// LoadGeo returns the cached geolocation, or nil when missing or older than
// 24 hours.
func (c *FileStore) LoadGeo() *geo.Position {
	data, err := afero.ReadFile(c.fs, filepath.Join(c.dir, geoFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}
	return &entry.Position
}

// SaveGeo caches a geolocation result.
func (c *FileStore) SaveGeo(pos *geo.Position) error {
	data, err := sonic.Marshal(GeoCacheEntry{Position: *pos, CachedAt: c.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}
	if err := afero.WriteFile(c.fs, filepath.Join(c.dir, geoFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}
	return nil
}
