package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/app"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/config"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/scheduler"
)

var (
	flagLogFormat string
	flagInterval  time.Duration
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the adzan and reminder scheduler",
		Long: "Run in the foreground, checking the schedule every second and dispatching\n" +
			"reminders 10 minutes before each prayer, adzan at prayer time, and the imsak\n" +
			"siren on fasting days. Cues are logged and, with mqtt_broker set, published\n" +
			"to mqtt_topic. SIGHUP re-reads the location from the config file.\n" +
			"Stops on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: runDaemon,
	}
	cmd.Flags().StringVar(&flagLogFormat, "log-format", "console", "Log format: console or json")
	cmd.Flags().DurationVar(&flagInterval, "interval", scheduler.DefaultInterval, "Tick interval")
	return cmd
}

// daemonLogger defaults to info, since the daemon's log is its output.
func daemonLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	raw := cfg.LogLevel
	if raw == config.Defaults().LogLevel && !flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "log-level") {
		raw = "info"
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	switch flagLogFormat {
	case "json":
		return logging.NewJSON(level), nil
	case "console", "":
		return logging.NewConsole(level, cmd.ErrOrStderr()), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: must be console or json", flagLogFormat)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	log, err := daemonLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.Options{
		Config:  cfg,
		Logger:  log,
		Offline: FlagOffline,
		Now:     now,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.NewDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				reloadLocation(cmd, a, d, log)
			}
		}
	}()

	d.Run(ctx, flagInterval)
	return nil
}

// reloadLocation applies the location from the config file. A --location
// flag pins the location for the life of the process.
func reloadLocation(cmd *cobra.Command, a *app.App, d *app.Daemon, log *logging.Logger) {
	if flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "location") {
		log.Info("location pinned by --location, ignoring reload")
		return
	}
	path, err := config.Path()
	if err != nil {
		log.Warn("config reload failed", "err", err)
		return
	}
	cfg, err := config.Effective(path)
	if err != nil {
		log.Warn("config reload failed", "path", path, "err", err)
		return
	}
	d.SetLocation(a.SelectLocation(cmd.Context(), cfg.Location))
}
