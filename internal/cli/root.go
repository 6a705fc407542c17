package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/app"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/config"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/display"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

// Global flags shared across all subcommands.
var (
	FlagLocation   string
	FlagDate       string
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagAsrFactor  int
	FlagOffline    bool
	FlagLogLevel   string
)

// loadedConfig holds the effective config (defaults, file, env) loaded during
// PersistentPreRunE. Flags are applied on top by effectiveConfig.
var loadedConfig *config.Config

// now is the clock every command reads. Tests replace it.
var now = time.Now

// NewRootCmd creates the root command for the jadwal-sholat CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "jadwal-sholat",
		Short:   "Jadwal sholat, puasa dan pengingat adzan",
		Long:    "Prayer times for Indonesian cities with offline calculation, fasting status,\nRamadan countdown and a daemon that dispatches adzan cues.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			cfg, err := config.Effective(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&FlagLocation, "location", "l", "", `Location id, name, or "auto" (overrides config)`)
	pf.StringVar(&FlagDate, "date", "", "Date as YYYY-MM-DD (default: today)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/jadwal-sholat/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.IntVar(&FlagAsrFactor, "asr-factor", 0, "Asr shadow factor: 1 (Shafi'i) or 2 (Hanafi)")
	pf.BoolVar(&FlagOffline, "offline", false, "Skip the remote source; use cache or calculation")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newHijriCmd())
	rootCmd.AddCommand(newFastingCmd())
	rootCmd.AddCommand(newRamadanCmd())
	rootCmd.AddCommand(newLocationsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDaemonCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("jadwal-sholat %s\n", version)
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > env > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	} else {
		cfg = config.Defaults()
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "location") {
		cfg.Location = FlagLocation
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if flagWasSet(flags, root, "asr-factor") {
		cfg.AsrFactor = FlagAsrFactor
	}
	if flagWasSet(flags, root, "log-level") {
		cfg.LogLevel = FlagLogLevel
	}
	return &cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// newLogger builds the console logger used by one-shot commands.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewConsole(level, cmd.ErrOrStderr()), nil
}

// openApp builds the application root for a command. Callers must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := effectiveConfig(cmd)
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), app.Options{
		Config:  cfg,
		Logger:  log,
		Offline: FlagOffline,
		Now:     now,
	})
}

// timeLayout maps the time_format setting to a Go layout.
func timeLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// targetDate parses raw (YYYY-MM-DD) in the location's zone; empty means
// today. isToday reports whether the date is the current day, which is when
// phases and countdowns apply.
func targetDate(a *app.App, raw string) (date time.Time, isToday bool, err error) {
	zone := a.Location.Zone()
	today := a.Now().In(zone)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today, true, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, zone)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return d, d.Format("2006-01-02") == today.Format("2006-01-02"), nil
}

