package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/fasting"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/phase"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long: "Display the next obligatory prayer with a countdown, suitable for status bars.\n" +
			"Template fields: .Name, .ShortName, .Time, .Remaining, .Hours, .Minutes, .Phase, .Hijri, .Fasting",
		Args: cobra.NoArgs,
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, phase, full, or a custom Go template")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	current := a.Now().In(a.Location.Zone())
	res, err := a.Schedule(cmd.Context(), current)
	if err != nil {
		return err
	}

	ph := phase.Resolve(current, res.Schedule)
	h := a.Hijri.Convert(res.Schedule.Date)
	st := prayer.Status{
		Next: prayer.Prayer{
			Key:  ph.NextKey,
			Name: ph.NextName,
			Time: ph.NextAt(current),
		},
		Phase: ph.Phase.String(),
		Hijri: h.String(),
	}
	if status := fasting.ClassifyHijri(h, res.Schedule.Date.Weekday()); status.IsFastingDay() {
		st.Fasting = status.String()
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return printJSON(w, nextJSON{
			Prayer:        ph.NextKey,
			Name:          ph.NextName,
			Time:          st.Next.Time.Format(timeLayout(a.Config.TimeFormat)),
			MinutesToNext: ph.MinutesToNext,
			Remaining:     ph.Remaining(),
			Phase:         ph.Phase,
			State:         ph.State(),
			Source:        res.Source.String(),
		})
	}

	fmt.Fprintln(w, prayer.FormatOutput(st, current, flagFormat, timeLayout(a.Config.TimeFormat)))
	return nil
}

type nextJSON struct {
	Prayer        string      `json:"prayer"`
	Name          string      `json:"name"`
	Time          string      `json:"time"`
	MinutesToNext int         `json:"minutes_to_next"`
	Remaining     string      `json:"remaining"`
	Phase         phase.Phase `json:"phase"`
	State         phase.State `json:"state"`
	Source        string      `json:"source"`
}
