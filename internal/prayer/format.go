package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format modes for the status line printed by `next`.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatPhase              = "phase"
	FormatFull               = "full"
)

// Status is what a status line describes: the next obligatory prayer and the
// context around it.
type Status struct {
	Next    Prayer
	Phase   string // current phase label, e.g. "Dhuha"
	Hijri   string // e.g. "1 Ramadhan 1446 H"
	Fasting string // e.g. "Puasa Ramadhan", empty when not a fasting day
}

// FormatData is the data passed to custom templates.
type FormatData struct {
	Name      string // "Ashar"
	ShortName string // "A"
	Time      string // "15:09" or "3:09 PM"
	Remaining string // "2h 15m"
	Hours     int
	Minutes   int
	Phase     string
	Hijri     string
	Fasting   string
}

// FormatOutput renders st according to mode. timeFormat is a Go layout,
// "15:04" or "3:04 PM".
//
// A mode containing "{{" is executed as a text/template over FormatData,
// e.g. "{{.Phase}} | {{.Name}} {{.Remaining}}".
func FormatOutput(st Status, now time.Time, mode string, timeFormat string) string {
	p := st.Next
	d := TimeRemaining(p, now)
	remaining := FormatRemaining(d)
	timeStr := p.Time.Format(timeFormat)
	short := ShortNames[p.Key]

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      p.Name,
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
			Phase:     st.Phase,
			Hijri:     st.Hijri,
			Fasting:   st.Fasting,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", p.Name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatPhase:
		return fmt.Sprintf("%s | %s %s", st.Phase, p.Name, timeStr)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", p.Name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", p.Name, timeStr)
	}
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("status").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return buf.String()
}
