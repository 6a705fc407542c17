package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/locations"
)

// printJSON writes v indented, with encoding/json compatible output.
func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type locationJSON struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Province  string  `json:"province"`
	Kind      string  `json:"kind"`
	Timezone  string  `json:"timezone"`
	Zone      string  `json:"zone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func toLocationJSON(l locations.Location) locationJSON {
	return locationJSON{
		ID:        l.ID,
		Name:      l.Name,
		Province:  l.Province,
		Kind:      string(l.Kind),
		Timezone:  l.TimeZone,
		Zone:      l.ZoneLabel(),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}
