package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/app"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/fasting"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
)

func newHijriCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hijri [YYYY-MM-DD]",
		Short: "Convert a date to the Hijri calendar",
		Long:  "Print the arithmetic Hijri date for today, --date, or the given date.\nIt can differ by a day or two from dates fixed by moon sighting.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHijri,
	}
}

func newFastingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fasting [YYYY-MM-DD]",
		Short: "Show the fasting status with imsak and iftar times",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFasting,
	}
}

func newRamadanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ramadan",
		Short: "Count down to the next Ramadan",
		Args:  cobra.NoArgs,
		RunE:  runRamadan,
	}
}

// dateArg lets a positional date take the place of --date.
func dateArg(a *app.App, args []string) (time.Time, error) {
	raw := FlagDate
	if len(args) == 1 {
		raw = args[0]
	}
	d, _, err := targetDate(a, raw)
	return d, err
}

type hijriJSON struct {
	Gregorian string `json:"gregorian"`
	Day       int    `json:"day"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Year      int    `json:"year"`
	Formatted string `json:"formatted"`
}

func runHijri(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := dateArg(a, args)
	if err != nil {
		return err
	}
	h := hijri.FromGregorian(d)

	w := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(w, hijriJSON{
			Gregorian: d.Format("2006-01-02"),
			Day:       h.Day,
			Month:     h.Month,
			MonthName: h.MonthName(),
			Year:      h.Year,
			Formatted: h.String(),
		})
	}
	fmt.Fprintln(w, h.String())
	return nil
}

type fastingJSON struct {
	Date    string         `json:"date"`
	Hijri   string         `json:"hijri"`
	Status  fasting.Status `json:"status"`
	Fasting bool           `json:"fasting"`
	Imsak   string         `json:"imsak,omitempty"`
	Iftar   string         `json:"iftar,omitempty"`
}

func runFasting(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := dateArg(a, args)
	if err != nil {
		return err
	}
	res, err := a.Schedule(cmd.Context(), d)
	if err != nil {
		return err
	}
	day := fasting.ForSchedule(res.Schedule)
	layout := timeLayout(a.Config.TimeFormat)

	w := cmd.OutOrStdout()
	if FlagJSON {
		out := fastingJSON{
			Date:    day.Date.Format("2006-01-02"),
			Hijri:   day.Hijri.String(),
			Status:  day.Status,
			Fasting: day.Status.IsFastingDay(),
		}
		if out.Fasting {
			out.Imsak = day.Imsak.Format(layout)
			out.Iftar = day.Iftar.Format(layout)
		}
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "%s, %s (%s)\n", fasting.DayName(day.Date.Weekday()), day.Date.Format("02 Jan 2006"), day.Hijri)
	fmt.Fprintln(w, day.Description())
	return nil
}

type ramadanJSON struct {
	InProgress bool   `json:"in_progress"`
	Start      string `json:"start,omitempty"`
	Countdown  string `json:"countdown"`
}

func runRamadan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := ramadanJSON{
		InProgress: a.Ramadan.InProgress(),
		Countdown:  a.Ramadan.Countdown(),
	}
	if start, err := a.Ramadan.StartInstant(); err == nil {
		out.Start = start.Format("2006-01-02 15:04")
	} else {
		a.Log.Warn("ramadan start not found", "err", err)
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(w, out)
	}
	fmt.Fprintf(w, "  %s\n", display.Bold("Ramadhan"))
	if out.Start != "" && !out.InProgress {
		fmt.Fprintf(w, "  Mulai: %s\n", out.Start)
	}
	fmt.Fprintf(w, "  %s\n", display.Accent(out.Countdown))
	return nil
}

