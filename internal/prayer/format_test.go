package prayer

import (
	"strings"
	"testing"
	"time"
)

func formatTestStatus() (Status, time.Time) {
	pTime := time.Date(2025, 3, 1, 15, 9, 0, 0, time.UTC)
	now := time.Date(2025, 3, 1, 12, 54, 0, 0, time.UTC)
	return Status{
		Next:    Prayer{Key: Asr, Name: "Ashar", Time: pTime},
		Phase:   "Dhuhur",
		Hijri:   "1 Ramadhan 1446 H",
		Fasting: "Puasa Ramadhan",
	}, now
}

func TestFormatOutput_AllBuiltinModes(t *testing.T) {
	st, now := formatTestStatus()

	tests := []struct {
		mode string
		want string
	}{
		{FormatTimeRemaining, "2h 15m"},
		{FormatNextPrayerTime, "15:09"},
		{FormatNameAndTime, "Ashar 15:09"},
		{FormatNameAndRemaining, "Ashar 2h 15m"},
		{FormatShortNameAndTime, "A 15:09"},
		{FormatShortNameAndRemain, "A 2h 15m"},
		{FormatPhase, "Dhuhur | Ashar 15:09"},
		{FormatFull, "Ashar 15:09 (2h 15m)"},
		{"nonexistent-format", "Ashar 15:09"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got := FormatOutput(st, now, tt.mode, "15:04")
			if got != tt.want {
				t.Errorf("FormatOutput(%q) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_12HourFormat(t *testing.T) {
	st, now := formatTestStatus()

	got := FormatOutput(st, now, FormatNameAndTime, "3:04 PM")
	if got != "Ashar 3:09 PM" {
		t.Errorf("12h format = %q, want %q", got, "Ashar 3:09 PM")
	}
}

func TestFormatOutput_CustomTemplate(t *testing.T) {
	st, now := formatTestStatus()

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"name and remaining", "{{.Name}} in {{.Remaining}}", "Ashar in 2h 15m"},
		{"hours and minutes", "{{.Hours}}j {{.Minutes}}m", "2j 15m"},
		{"context fields", "{{.Phase}}|{{.Hijri}}|{{.Fasting}}", "Dhuhur|1 Ramadhan 1446 H|Puasa Ramadhan"},
		{"conditional fasting", "{{if .Fasting}}*{{end}}{{.ShortName}}", "*A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatOutput(st, now, tt.tmpl, "15:04")
			if got != tt.want {
				t.Errorf("template %q = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_TemplateErrors(t *testing.T) {
	st, now := formatTestStatus()

	for _, tmpl := range []string{"{{.Invalid", "{{.NonExistent}}"} {
		got := FormatOutput(st, now, tmpl, "15:04")
		if !strings.HasPrefix(got, "template-err:") {
			t.Errorf("template %q should fail, got %q", tmpl, got)
		}
	}
}

func TestFormatOutput_ZeroRemaining(t *testing.T) {
	now := time.Date(2025, 3, 1, 15, 9, 0, 0, time.UTC)
	st := Status{Next: Prayer{Key: Asr, Name: "Ashar", Time: now}}

	if got := FormatOutput(st, now, FormatTimeRemaining, "15:04"); got != "0m" {
		t.Errorf("zero remaining = %q, want %q", got, "0m")
	}
}
