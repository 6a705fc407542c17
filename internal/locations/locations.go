// Package locations is the directory of places a schedule can be resolved for.
//
// The directory is a CSV file with the header
//
//	id,province,name,kind,latitude,longitude,timezone
//
// A built-in copy covering the major Indonesian cities is embedded in the
// binary. Lookups never leave the caller without a location: Default always
// returns a usable record.
package locations

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

//go:embed data/wilayah.csv
var builtinCSV []byte

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("location not found")

// DefaultProvince is the province whose first record is the default location.
const DefaultProvince = "DKI Jakarta"

// Kind distinguishes municipalities from regencies.
type Kind string

const (
	KindCity    Kind = "KOTA"
	KindRegency Kind = "KABUPATEN"
)

// Label is the short prefix used in display names.
func (k Kind) Label() string {
	if k == KindRegency {
		return "Kab."
	}
	return "Kota"
}

// Location is an immutable directory record.
type Location struct {
	ID        string  `json:"id" validate:"required"`
	Province  string  `json:"province" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Kind      Kind    `json:"kind" validate:"oneof=KOTA KABUPATEN"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	TimeZone  string  `json:"timezone" validate:"required"`
}

// Fallback is used when no directory data can be read at all.
var Fallback = Location{
	ID:        "3101",
	Province:  DefaultProvince,
	Name:      "Jakarta Pusat",
	Kind:      KindCity,
	Latitude:  -6.1864,
	Longitude: 106.8340,
	TimeZone:  "Asia/Jakarta",
}

// zoneOffsets covers the Indonesian zones when tzdata is unavailable.
var zoneOffsets = map[string]int{
	"Asia/Jakarta":   7,
	"Asia/Pontianak": 7,
	"Asia/Makassar":  8,
	"Asia/Jayapura":  9,
}

var zoneLabels = map[string]string{
	"Asia/Jakarta":   "WIB",
	"Asia/Pontianak": "WIB",
	"Asia/Makassar":  "WITA",
	"Asia/Jayapura":  "WIT",
}

// DisplayName renders "Kota Bandung" or "Kab. Sleman".
func (l Location) DisplayName() string {
	return l.Kind.Label() + " " + l.Name
}

// Zone returns the record's time zone. Unknown identifiers degrade to a fixed
// offset (UTC+7 unless the identifier is a known Indonesian zone).
func (l Location) Zone() *time.Location {
	if tz, err := time.LoadLocation(l.TimeZone); err == nil {
		return tz
	}
	offset, ok := zoneOffsets[l.TimeZone]
	if !ok {
		offset = 7
	}
	return time.FixedZone(l.ZoneLabel(), offset*3600)
}

// UTCOffset returns hours east of UTC in effect at t.
func (l Location) UTCOffset(t time.Time) float64 {
	_, secs := t.In(l.Zone()).Zone()
	return float64(secs) / 3600
}

// ZoneLabel is WIB, WITA or WIT for Indonesian zones, otherwise the zone's
// current abbreviation.
func (l Location) ZoneLabel() string {
	if label, ok := zoneLabels[l.TimeZone]; ok {
		return label
	}
	if tz, err := time.LoadLocation(l.TimeZone); err == nil {
		name, _ := time.Now().In(tz).Zone()
		return name
	}
	return l.TimeZone
}

// Valid reports whether the coordinates can be fed to the solar calculator.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Directory is a read-only set of locations. Safe for concurrent use.
type Directory struct {
	all  []Location
	byID map[string]int
}

// Builtin returns the directory embedded in the binary.
func Builtin() *Directory {
	dir, _, err := Parse(bytes.NewReader(builtinCSV))
	if err != nil {
		return newDirectory([]Location{Fallback})
	}
	return dir
}

// Open reads the directory at path, falling back to the built-in data when
// path is empty, unreadable or holds no valid rows.
func Open(path string, log *logging.Logger) *Directory {
	if path == "" {
		return Builtin()
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn("locations file unavailable, using built-in directory", "path", path, "err", err)
		return Builtin()
	}
	defer f.Close()

	dir, skipped, err := Parse(f)
	if err != nil {
		log.Warn("locations file unusable, using built-in directory", "path", path, "err", err)
		return Builtin()
	}
	for _, e := range skipped {
		log.Warn("skipped location row", "path", path, "err", e)
	}
	return dir
}

// Parse reads CSV rows. Rows that fail validation are skipped and returned
// as errors; an error is returned only when no valid row remains.
func Parse(r io.Reader) (*Directory, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	validate := validator.New()

	var (
		locs    []Location
		skipped []error
		line    int
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, skipped, errors.Wrap(err, "read locations")
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
			continue
		}

		loc, err := parseRecord(rec)
		if err == nil {
			err = validate.Struct(loc)
		}
		if err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		locs = append(locs, loc)
	}

	if len(locs) == 0 {
		return nil, skipped, errors.New("no valid location rows")
	}
	return newDirectory(locs), skipped, nil
}

func parseRecord(rec []string) (Location, error) {
	if len(rec) < 7 {
		return Location{}, fmt.Errorf("expected 7 fields, got %d", len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	lat, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return Location{}, fmt.Errorf("invalid latitude %q", rec[4])
	}
	lon, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return Location{}, fmt.Errorf("invalid longitude %q", rec[5])
	}
	return Location{
		ID:        rec[0],
		Province:  rec[1],
		Name:      rec[2],
		Kind:      Kind(strings.ToUpper(rec[3])),
		Latitude:  lat,
		Longitude: lon,
		TimeZone:  rec[6],
	}, nil
}

func newDirectory(locs []Location) *Directory {
	d := &Directory{all: locs, byID: make(map[string]int, len(locs))}
	for i, l := range locs {
		if _, dup := d.byID[l.ID]; !dup {
			d.byID[l.ID] = i
		}
	}
	return d
}

// All returns every location in file order.
func (d *Directory) All() []Location {
	out := make([]Location, len(d.all))
	copy(out, d.all)
	return out
}

// Provinces returns the distinct province names, sorted.
func (d *Directory) Provinces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range d.all {
		if !seen[l.Province] {
			seen[l.Province] = true
			out = append(out, l.Province)
		}
	}
	sort.Strings(out)
	return out
}

// InProvince returns the locations of a province, case-insensitively.
func (d *Directory) InProvince(province string) []Location {
	var out []Location
	for _, l := range d.all {
		if strings.EqualFold(l.Province, province) {
			out = append(out, l)
		}
	}
	return out
}

// ByID looks a location up by identifier.
func (d *Directory) ByID(id string) (Location, error) {
	if i, ok := d.byID[strings.TrimSpace(id)]; ok {
		return d.all[i], nil
	}
	return Location{}, errors.Wrapf(ErrNotFound, "id %q", id)
}

// ByName matches case-insensitively: an exact name or display name first,
// then the first name with the given prefix.
func (d *Directory) ByName(name string) (Location, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return Location{}, errors.Wrap(ErrNotFound, "empty name")
	}
	for _, l := range d.all {
		if strings.ToLower(l.Name) == q || strings.ToLower(l.DisplayName()) == q {
			return l, nil
		}
	}
	for _, l := range d.all {
		if strings.HasPrefix(strings.ToLower(l.Name), q) {
			return l, nil
		}
	}
	return Location{}, errors.Wrapf(ErrNotFound, "name %q", name)
}

// Lookup tries the identifier first, then the name.
func (d *Directory) Lookup(ref string) (Location, error) {
	if l, err := d.ByID(ref); err == nil {
		return l, nil
	}
	return d.ByName(ref)
}

// Search returns locations whose name or province contains q.
func (d *Directory) Search(q string) []Location {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []Location
	for _, l := range d.all {
		if strings.Contains(strings.ToLower(l.Name), q) || strings.Contains(strings.ToLower(l.Province), q) {
			out = append(out, l)
		}
	}
	return out
}

// Default returns the first location of DefaultProvince, the first record
// when that province is absent, or Fallback.
func (d *Directory) Default() Location {
	if ls := d.InProvince(DefaultProvince); len(ls) > 0 {
		return ls[0]
	}
	if len(d.all) > 0 {
		return d.all[0]
	}
	return Fallback
}

// Resolve looks ref up and substitutes Default when it is empty or unknown.
// The boolean reports whether the substitution happened.
func (d *Directory) Resolve(ref string) (Location, bool) {
	if strings.TrimSpace(ref) == "" {
		return d.Default(), true
	}
	if l, err := d.Lookup(ref); err == nil {
		return l, false
	}
	return d.Default(), true
}

// Nearest returns the location closest to the given coordinates.
func (d *Directory) Nearest(lat, lon float64) (Location, float64) {
	best, bestKm := d.Default(), math.Inf(1)
	for _, l := range d.all {
		if km := haversineKm(lat, lon, l.Latitude, l.Longitude); km < bestKm {
			best, bestKm = l, km
		}
	}
	return best, bestKm
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
