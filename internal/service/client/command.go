package client

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/tag-guard/internal/config"
	"github.com/oshokin/tag-guard/internal/logger"
	"github.com/oshokin/tag-guard/internal/service/common"
)

// Options configures the client commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Watch keeps polling the status until interrupted.
	Watch bool

	// PollInterval is the delay between two status polls in watch mode.
	PollInterval time.Duration
}

// DefaultPollInterval matches the daemon tick.
const DefaultPollInterval = time.Second

// RunStatus prints the daemon status once, or on every poll in watch mode.
func RunStatus(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "tagguard-client")

	client, cfg, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	if !opts.Watch {
		return printStatus(ctx, client)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.InfoKV(ctx, "Watching status", "server_address", cfg.ServerAddress, "interval", interval.String())

	if err = printStatus(ctx, client); err != nil {
		logger.ErrorKV(ctx, "Get status failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			// Transient daemon restarts must not end the watch.
			if err = printStatus(ctx, client); err != nil {
				logger.ErrorKV(ctx, "Get status failed", "error", err)
			}
		}
	}
}

// RunRegister registers token as the phone receiving push alerts.
func RunRegister(ctx context.Context, opts *Options, token string) error {
	ctx = logger.WithName(ctx, "tagguard-client")

	// Identify current user and hostname for the registration record.
	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	registration, err := client.RegisterDevice(ctx, token, actor)
	if err != nil {
		return err
	}

	logger.InfoKV(
		ctx,
		"Device registered",
		"token",
		registration.MaskedToken(),
		"actor",
		registration.Actor,
		"registered_at",
		registration.RegisteredAt.Format(time.RFC3339),
	)

	return nil
}

// connect loads settings and dials the daemon.
func connect(ctx context.Context, opts *Options) (*common.Client, *config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	// Command line argument overrides config.
	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("dial daemon: %w", err)
	}

	return client, cfg, nil
}

// printStatus fetches and logs one status line.
func printStatus(ctx context.Context, client *common.Client) error {
	status, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Status: %s", common.FormatStatus(status))

	return nil
}
