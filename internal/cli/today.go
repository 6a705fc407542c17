package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/fasting"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/phase"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resolver"
)

func runToday(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	date, isToday, err := targetDate(a, FlagDate)
	if err != nil {
		return err
	}

	res, err := a.Schedule(cmd.Context(), date)
	if err != nil {
		return err
	}

	var ph *phase.Result
	if isToday {
		ph = phase.Resolve(a.Now(), res.Schedule)
	}

	layout := timeLayout(a.Config.TimeFormat)
	w := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(w, buildTodayJSON(res, ph, layout))
	}
	printTodayRich(w, res, ph, a.Now(), layout)
	return nil
}

// printTodayRich renders the colored terminal output for one day.
// Passed events are dimmed and the next prayer is accented when ph is set.
func printTodayRich(w io.Writer, res resolver.Result, ph *phase.Result, now time.Time, layout string) {
	s := res.Schedule
	h := hijri.FromGregorian(s.Date)
	status := fasting.ClassifyHijri(h, s.Date.Weekday())

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Jadwal Sholat"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s, %s (%s)\n", res.Location.DisplayName(), res.Location.Province, res.Location.ZoneLabel())
	fmt.Fprintf(w, "  %s, %s\n", fasting.DayName(s.Date.Weekday()), s.Date.Format("02 Jan 2006"))
	fmt.Fprintf(w, "  %s\n", h)
	if status.IsFastingDay() {
		fmt.Fprintf(w, "  %s\n", display.Green(status.String()))
	}
	fmt.Fprintf(w, "  Sumber: %s\n", display.ForSource(res.Source.String()))
	fmt.Fprintln(w)

	tod := prayer.Of(now.In(s.Date.Location()))
	tbl := display.NewTable("Waktu", "Jam")
	for i, key := range prayer.EventKeys {
		t := s.Time(key)
		tbl.AddRow(prayer.DisplayNames[key], t.Format(layout))
		if ph == nil {
			continue
		}
		switch {
		case key == ph.NextKey:
			tbl.SetHighlightRow(i)
		case !tod.Before(t):
			tbl.DimRow(i)
		}
	}
	fmt.Fprint(w, tbl.Render())

	if ph != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Fase: %s\n", ph.Phase.StatusText())
		fmt.Fprintf(w, "  %s\n", display.ForState(string(ph.State()), ph.CountdownLabel()))
	}
	if len(res.Clamped) > 0 {
		fmt.Fprintf(w, "  %s\n", display.Yellow(fmt.Sprintf("Perkiraan di lintang ekstrem: %v", res.Clamped)))
	}
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location locationJSON      `json:"location"`
	Date     string            `json:"date"`
	Hijri    string            `json:"hijri"`
	Fasting  fasting.Status    `json:"fasting"`
	Source   resolver.Source   `json:"source"`
	Timings  map[string]string `json:"timings"`
	Phase    *phaseJSON        `json:"phase,omitempty"`
	Clamped  []string          `json:"clamped,omitempty"`
}

type phaseJSON struct {
	Current       phase.Phase `json:"current"`
	Status        string      `json:"status"`
	State         phase.State `json:"state"`
	Next          string      `json:"next"`
	NextTime      string      `json:"next_time"`
	MinutesToNext int         `json:"minutes_to_next"`
	Remaining     string      `json:"remaining"`
}

func buildTodayJSON(res resolver.Result, ph *phase.Result, layout string) todayJSON {
	s := res.Schedule
	h := hijri.FromGregorian(s.Date)

	timings := make(map[string]string, len(prayer.EventKeys))
	for _, key := range prayer.EventKeys {
		timings[key] = s.Time(key).Format(layout)
	}

	out := todayJSON{
		Location: toLocationJSON(res.Location),
		Date:     s.Date.Format("2006-01-02"),
		Hijri:    h.String(),
		Fasting:  fasting.ClassifyHijri(h, s.Date.Weekday()),
		Source:   res.Source,
		Timings:  timings,
		Clamped:  res.Clamped,
	}
	if ph != nil {
		out.Phase = &phaseJSON{
			Current:       ph.Phase,
			Status:        ph.Phase.StatusText(),
			State:         ph.State(),
			Next:          ph.NextKey,
			NextTime:      ph.NextTime.Format(layout),
			MinutesToNext: ph.MinutesToNext,
			Remaining:     ph.Remaining(),
		}
	}
	return out
}
