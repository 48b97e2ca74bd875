package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/tag-guard/internal/config"
	"github.com/oshokin/tag-guard/internal/service/guard"
	"github.com/oshokin/tag-guard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// dryRun replaces the GPIO buzzer with log output.
	dryRun bool
	// replayFile plays recorded advertisements instead of scanning.
	replayFile string
	// replayInterval spaces replayed records.
	replayInterval time.Duration
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "tagguard [listen-address]",
		Short: "Watch a BLE child tag and alert when it drifts away or disappears.",
		Long: `Scans for the advertisements of a BLE tag and raises an alert when the tag is too far
or no longer detected.

An alert sounds the buzzer for a few seconds and sends one push notification to the
registered phone. A strong reading silences the buzzer at once.
Without radio hardware, --replay plays "name,rssi" lines from a file ("-" for stdin),
and --dry-run logs buzzer output instead of driving the GPIO pin.
Listen address of the status endpoint can be provided as argument to override config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &guard.Options{
				ConfigPath:     configPath,
				ListenAddress:  listenAddress,
				DryRun:         dryRun,
				ReplayFile:     replayFile,
				ReplayInterval: replayInterval,
				AllowMultiple:  allowMultiple,
			}

			return guard.Run(ctx, options)
		},
	}
)

// Execute runs the tagguard CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log buzzer output instead of driving the GPIO pin")
	rootCmd.Flags().StringVarP(&replayFile, "replay", "r", "", "replay advertisements from a file, - for stdin")
	rootCmd.Flags().DurationVar(&replayInterval, "replay-interval", time.Second, "delay between replayed advertisements")

	// Hidden flag for running next to another daemon in tests.
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
