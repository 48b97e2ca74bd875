package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/tag-guard/internal/config"
	"github.com/oshokin/tag-guard/internal/service/client"
	"github.com/oshokin/tag-guard/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// serverAddress overrides the daemon address from configuration.
	serverAddress string
	// watch keeps printing the status.
	watch bool
	// pollInterval is the watch period.
	pollInterval time.Duration

	// rootCmd is the base command, it only groups the subcommands.
	rootCmd = &cobra.Command{
		Use:   "tagguard-client",
		Short: "Query and configure a running tagguard daemon.",
	}

	// statusCmd prints the tag status.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the tag proximity and alert status.",
		Long: `Prints the last RSSI of the tag, how long ago it was seen, the weak reading streak
and the current alert, if any. With --watch the status is printed on every poll until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.RunStatus(ctx, options())
		},
	}

	// registerCmd registers the phone receiving push alerts.
	registerCmd = &cobra.Command{
		Use:   "register-device <token>",
		Short: "Register the phone that receives push alerts.",
		Long: `Stores the Firebase Cloud Messaging registration token of a phone on the daemon.
The registration survives daemon restarts and replaces any previously registered phone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.RunRegister(ctx, options(), args[0])
		},
	}
)

// Execute runs the tagguard-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options collects the flag values.
func options() *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Watch:         watch,
		PollInterval:  pollInterval,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "daemon address, overrides configuration")

	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing the status")
	statusCmd.Flags().DurationVar(&pollInterval, "interval", client.DefaultPollInterval, "watch poll interval")

	rootCmd.AddCommand(statusCmd, registerCmd)
}
