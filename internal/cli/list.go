package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/fasting"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/resolver"
)

const maxListDays = 366

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7), starting at --date or today.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// parseDays validates the optional day count argument.
func parseDays(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxListDays {
		return 0, fmt.Errorf("invalid number of days: %q (must be 1-%d)", args[0], maxListDays)
	}
	return n, nil
}

// runList is the handler for list, week and month.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days, err := parseDays(args, defaultDays)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	from, _, err := targetDate(a, FlagDate)
	if err != nil {
		return err
	}

	results, err := a.Range(cmd.Context(), from, days)
	if err != nil {
		return err
	}

	layout := timeLayout(a.Config.TimeFormat)
	today := a.Now().In(a.Location.Zone()).Format("2006-01-02")
	w := cmd.OutOrStdout()
	if FlagJSON {
		return printListJSON(w, a.Location, results, layout)
	}
	printListRich(w, a.Location, results, today, layout)
	return nil
}

func printListRich(w io.Writer, loc locations.Location, results []resolver.Result, today, layout string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("Jadwal Sholat %d Hari", len(results))))
	fmt.Fprintf(w, "  %s, %s (%s)\n", loc.DisplayName(), loc.Province, loc.ZoneLabel())
	fmt.Fprintln(w)

	headers := []string{"Tanggal", "Hijriah"}
	for _, key := range prayer.EventKeys {
		headers = append(headers, prayer.DisplayNames[key])
	}
	tbl := display.NewTable(headers...)

	for i, res := range results {
		s := res.Schedule
		h := hijri.FromGregorian(s.Date)
		dateLabel := fasting.DayName(s.Date.Weekday())[:3] + " " + s.Date.Format("02 Jan")
		if fasting.ClassifyHijri(h, s.Date.Weekday()).IsFastingDay() {
			dateLabel += " *"
		}

		row := []string{dateLabel, fmt.Sprintf("%d %s", h.Day, h.MonthName())}
		for _, key := range prayer.EventKeys {
			row = append(row, s.Time(key).Format(layout))
		}
		tbl.AddRow(row...)

		if s.Date.Format("2006-01-02") == today {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintf(w, "\n  %s\n\n", display.Dim("* hari puasa"))
}

type listJSONOutput struct {
	Location locationJSON  `json:"location"`
	Days     []listJSONDay `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri"`
	Fasting fasting.Status    `json:"fasting"`
	Source  resolver.Source   `json:"source"`
	Timings map[string]string `json:"timings"`
}

func printListJSON(w io.Writer, loc locations.Location, results []resolver.Result, layout string) error {
	out := listJSONOutput{Location: toLocationJSON(loc)}
	for _, res := range results {
		s := res.Schedule
		h := hijri.FromGregorian(s.Date)
		timings := make(map[string]string, len(prayer.EventKeys))
		for _, key := range prayer.EventKeys {
			timings[key] = s.Time(key).Format(layout)
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    s.Date.Format("2006-01-02"),
			Hijri:   h.String(),
			Fasting: fasting.ClassifyHijri(h, s.Date.Weekday()),
			Source:  res.Source,
			Timings: timings,
		})
	}
	return printJSON(w, out)
}
