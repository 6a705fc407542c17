package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
)

var flagProvince string

func newLocationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations [query]",
		Short: "List or search the location directory",
		Long:  "List every location, those of one --province, or those whose name or province contains query.\nUse the id or name with --location or `config set location`.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLocations,
	}
	cmd.Flags().StringVar(&flagProvince, "province", "", "Only list locations in this province")
	return cmd
}

func runLocations(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	dir := locations.Open(cfg.LocationsFile, log)

	var found []locations.Location
	switch {
	case len(args) == 1:
		found = dir.Search(args[0])
	case flagProvince != "":
		found = dir.InProvince(flagProvince)
	default:
		found = dir.All()
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		out := make([]locationJSON, 0, len(found))
		for _, l := range found {
			out = append(out, toLocationJSON(l))
		}
		return printJSON(w, out)
	}

	if len(found) == 0 {
		fmt.Fprintln(w, "No locations found.")
		if len(args) == 1 {
			fmt.Fprintf(w, "Provinces: %s\n", strings.Join(dir.Provinces(), ", "))
		}
		return nil
	}

	tbl := display.NewTable("ID", "Provinsi", "Nama", "Zona")
	for _, l := range found {
		tbl.AddRow(l.ID, l.Province, l.DisplayName(), l.ZoneLabel())
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintf(w, "\n  %s\n\n", display.Dim(fmt.Sprintf("%d lokasi", len(found))))
	return nil
}
