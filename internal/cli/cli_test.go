package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/app"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/config"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

var wib = time.FixedZone("WIB", 7*3600)

// run executes the root command in an isolated home with a fixed clock.
// Every run is offline.
func run(t *testing.T, at time.Time, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/config")
	return runIn(t, home, at, args...)
}

// runIn reuses home so config written by one run is seen by the next.
func runIn(t *testing.T, home string, at time.Time, args ...string) (string, error) {
	t.Helper()
	display.SetEnabled(false)

	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })

	var out, errOut bytes.Buffer
	root := NewRootCmd("v1.2.3-test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--offline", "--cache-dir", home + "/cache"}, args...))
	err := root.Execute()
	return out.String(), err
}

var ramadanMorning = time.Date(2025, 3, 1, 8, 0, 0, 0, wib)

func TestVersionFlag(t *testing.T) {
	out, err := run(t, ramadanMorning, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if got := strings.TrimSpace(out); got != "jadwal-sholat version v1.2.3-test" {
		t.Errorf("--version = %q", got)
	}
}

func TestPrintVersion(t *testing.T) {
	if got := PrintVersion("v1.0.0"); got != "jadwal-sholat v1.0.0\n" {
		t.Errorf("PrintVersion = %q", got)
	}
}

func TestToday_JSON(t *testing.T) {
	out, err := run(t, ramadanMorning, "--json")
	if err != nil {
		t.Fatalf("today: %v", err)
	}

	var got struct {
		Location struct {
			ID   string `json:"id"`
			Zone string `json:"zone"`
		} `json:"location"`
		Date    string            `json:"date"`
		Hijri   string            `json:"hijri"`
		Fasting string            `json:"fasting"`
		Source  string            `json:"source"`
		Timings map[string]string `json:"timings"`
		Phase   *struct {
			Current string `json:"current"`
			State   string `json:"state"`
			Next    string `json:"next"`
		} `json:"phase"`
	}
	if err := sonic.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	if got.Location.ID != "3101" || got.Location.Zone != "WIB" {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Date != "2025-03-01" || got.Hijri != "1 Ramadhan 1446 H" {
		t.Errorf("date = %s / %s", got.Date, got.Hijri)
	}
	if got.Fasting != "Puasa Ramadhan" {
		t.Errorf("fasting = %q", got.Fasting)
	}
	if got.Source != "Computed" {
		t.Errorf("source = %q, want Computed when offline with an empty cache", got.Source)
	}
	if len(got.Timings) != 8 || got.Timings["dhuhr"] != "12:05" || got.Timings["imsak"] != "04:38" {
		t.Errorf("timings = %v", got.Timings)
	}
	if got.Phase == nil || got.Phase.Current != "Dhuha" || got.Phase.Next != "dhuhr" || got.Phase.State != "WAITING" {
		t.Errorf("phase = %+v", got.Phase)
	}
}

func TestToday_Rich(t *testing.T) {
	out, err := run(t, ramadanMorning)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	for _, want := range []string{
		"Jadwal Sholat",
		"Kota Jakarta Pusat, DKI Jakarta (WIB)",
		"Sabtu, 01 Mar 2025",
		"1 Ramadhan 1446 H",
		"Puasa Ramadhan",
		"Sumber: Computed",
		"Fase: Dhuha (Sunnah)",
		"Dzuhur dalam 4j 5m",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToday_OtherDateHasNoPhase(t *testing.T) {
	out, err := run(t, ramadanMorning, "--json", "--date", "2025-03-02")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if strings.Contains(out, `"phase"`) {
		t.Errorf("a date other than today should have no phase:\n%s", out)
	}
	if !strings.Contains(out, `"date": "2025-03-02"`) {
		t.Errorf("wrong date:\n%s", out)
	}
}

func TestToday_InvalidDate(t *testing.T) {
	if _, err := run(t, ramadanMorning, "--date", "01/03/2025"); err == nil {
		t.Error("expected an error for a malformed --date")
	}
}

func TestToday_TwelveHour(t *testing.T) {
	out, err := run(t, ramadanMorning, "--json", "--time-format", "12h")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !strings.Contains(out, `"maghrib": "6:11 PM"`) {
		t.Errorf("expected 12h maghrib:\n%s", out)
	}
}

func TestNext_Template(t *testing.T) {
	out, err := run(t, ramadanMorning, "next", "--format", "{{.Name}}|{{.Time}}|{{.Phase}}|{{.Fasting}}")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := strings.TrimSpace(out); got != "Dzuhur|12:05|Dhuha|Puasa Ramadhan" {
		t.Errorf("next = %q", got)
	}
}

func TestNext_AfterIshaWrapsToFajr(t *testing.T) {
	late := time.Date(2025, 3, 1, 23, 0, 0, 0, wib)
	out, err := run(t, late, "next", "--format", "name-and-remaining")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := strings.TrimSpace(out); !strings.HasPrefix(got, "Subuh 5h") {
		t.Errorf("next = %q, want Subuh in about 5h", got)
	}
}

func TestList_JSON(t *testing.T) {
	out, err := run(t, ramadanMorning, "list", "3", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got struct {
		Days []struct {
			Date    string `json:"date"`
			Fasting string `json:"fasting"`
		} `json:"days"`
	}
	if err := sonic.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"2025-03-01", "2025-03-02", "2025-03-03"}
	if len(got.Days) != len(want) {
		t.Fatalf("got %d days", len(got.Days))
	}
	for i, d := range got.Days {
		if d.Date != want[i] {
			t.Errorf("day %d = %s, want %s", i, d.Date, want[i])
		}
		if d.Fasting != "Puasa Ramadhan" {
			t.Errorf("day %d fasting = %q", i, d.Fasting)
		}
	}
}

func TestList_InvalidDays(t *testing.T) {
	for _, arg := range []string{"0", "-3", "abc", "400"} {
		if _, err := run(t, ramadanMorning, "list", arg); err == nil {
			t.Errorf("list %s: expected error", arg)
		}
	}
}

func TestWeek_Rich(t *testing.T) {
	out, err := run(t, ramadanMorning, "week")
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if !strings.Contains(out, "Jadwal Sholat 7 Hari") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Sab 01 Mar *") {
		t.Errorf("fasting day should be marked:\n%s", out)
	}
}

func TestHijri(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"hijri"}, "1 Ramadhan 1446 H"},
		{[]string{"hijri", "2025-03-31"}, "1 Syawwal 1446 H"},
		{[]string{"--date", "2025-03-31", "hijri"}, "1 Syawwal 1446 H"},
	}
	for _, tt := range tests {
		out, err := run(t, ramadanMorning, tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestFasting(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-03-03", "Status: Puasa Ramadhan"},
		{"2025-04-07", "Status: Puasa Sunnah Senin"},
		{"2025-04-08", "Status: Tidak Berpuasa"},
	}
	for _, tt := range tests {
		out, err := run(t, ramadanMorning, "fasting", tt.date)
		if err != nil {
			t.Fatalf("fasting %s: %v", tt.date, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("fasting %s:\n%s\nwant %q", tt.date, out, tt.want)
		}
	}
}

func TestRamadan_JSON(t *testing.T) {
	out, err := run(t, time.Date(2025, 1, 15, 4, 30, 0, 0, wib), "ramadan", "--json")
	if err != nil {
		t.Fatalf("ramadan: %v", err)
	}
	var got ramadanJSON
	if err := sonic.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.InProgress || got.Start != "2025-03-01 04:30" || got.Countdown != "45 hari 0 jam lagi" {
		t.Errorf("ramadan = %+v", got)
	}
}

func TestRamadan_InProgress(t *testing.T) {
	out, err := run(t, ramadanMorning, "ramadan")
	if err != nil {
		t.Fatalf("ramadan: %v", err)
	}
	if !strings.Contains(out, "Sedang berlangsung") {
		t.Errorf("output:\n%s", out)
	}
}

func TestLocations(t *testing.T) {
	out, err := run(t, ramadanMorning, "locations", "bandung")
	if err != nil {
		t.Fatalf("locations: %v", err)
	}
	if !strings.Contains(out, "3201") || !strings.Contains(out, "Kota Bandung") {
		t.Errorf("search output:\n%s", out)
	}

	out, err = run(t, ramadanMorning, "locations", "atlantis")
	if err != nil {
		t.Fatalf("locations: %v", err)
	}
	if !strings.Contains(out, "No locations found.") {
		t.Errorf("empty search output:\n%s", out)
	}
}

func TestLocationFlag(t *testing.T) {
	out, err := run(t, ramadanMorning, "--json", "--location", "Surabaya")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !strings.Contains(out, `"id": "3501"`) {
		t.Errorf("expected Surabaya:\n%s", out)
	}
}

func TestConfig_SetGetShowReset(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/config")

	if _, err := runIn(t, home, ramadanMorning, "config", "set", "location", "Bandung"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := runIn(t, home, ramadanMorning, "config", "set", "asr_factor", "3"); err == nil {
		t.Error("asr_factor 3 should be rejected")
	}

	out, err := runIn(t, home, ramadanMorning, "config", "get", "location")
	if err != nil || strings.TrimSpace(out) != "Bandung" {
		t.Errorf("config get location = %q, %v", out, err)
	}

	out, err = runIn(t, home, ramadanMorning, "--json")
	if err != nil || !strings.Contains(out, `"id": "3201"`) {
		t.Errorf("saved location not used: %v\n%s", err, out)
	}

	t.Setenv("JADWAL_SHOLAT_TIME_FORMAT", "12h")
	out, err = runIn(t, home, ramadanMorning, "config", "get", "time_format")
	if err != nil || strings.TrimSpace(out) != "12h" {
		t.Errorf("env override = %q, %v", out, err)
	}

	out, err = runIn(t, home, ramadanMorning, "config")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "Bandung") || !strings.Contains(out, "asr_factor      1  (default)") {
		t.Errorf("config show:\n%s", out)
	}

	if _, err := runIn(t, home, ramadanMorning, "config", "reset"); err != nil {
		t.Fatalf("config reset: %v", err)
	}
	out, _ = runIn(t, home, ramadanMorning, "config", "get", "location")
	if strings.TrimSpace(out) != "" {
		t.Errorf("location after reset = %q", out)
	}
}

func TestConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	out, err := runIn(t, home, ramadanMorning, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got := strings.TrimSpace(out); got != home+"/jadwal-sholat/config.json" {
		t.Errorf("path = %q", got)
	}
}

func TestDaemon_InvalidLogFormat(t *testing.T) {
	if _, err := run(t, ramadanMorning, "daemon", "--log-format", "xml"); err == nil {
		t.Error("expected an error for an unknown log format")
	}
}

func TestDaemon_ReloadLocationFromConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/config")
	if _, err := runIn(t, home, ramadanMorning, "config", "set", "location", "Surabaya"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	cfg := config.Defaults()
	cfg.CacheDir = home + "/cache"
	log := logging.NewNop()
	a, err := app.New(context.Background(), app.Options{
		Config:  &cfg,
		Logger:  log,
		Offline: true,
		Now:     func() time.Time { return ramadanMorning },
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()
	d, err := a.NewDaemon()
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	defer d.Close()

	if got := d.Location().ID; got != "3101" {
		t.Fatalf("initial location = %s, want 3101", got)
	}

	cmd := newDaemonCmd()
	NewRootCmd("test").AddCommand(cmd)
	cmd.SetContext(context.Background())
	reloadLocation(cmd, a, d, log)

	if got := d.Location().ID; got != "3501" {
		t.Errorf("location after reload = %s, want 3501", got)
	}
}
