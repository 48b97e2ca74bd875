package guard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/tag-guard/internal/api/grpc/guard"
	"github.com/oshokin/tag-guard/internal/config"
	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/hardware/buzzer"
	"github.com/oshokin/tag-guard/internal/logger"
	"github.com/oshokin/tag-guard/internal/metrics"
	"github.com/oshokin/tag-guard/internal/notify"
	repository "github.com/oshokin/tag-guard/internal/repository/device"
	"github.com/oshokin/tag-guard/internal/scanner"
	"github.com/oshokin/tag-guard/internal/service/monitor"
)

// Options controls the daemon process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress overrides the gRPC listen address from settings.
	ListenAddress string
	// DryRun replaces the GPIO buzzer with a logging one.
	DryRun bool
	// ReplayFile plays a recorded session instead of scanning; "-" reads stdin.
	ReplayFile string
	// ReplayInterval spaces replayed records.
	ReplayInterval time.Duration
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// readHeaderTimeout bounds slow metrics clients.
const readHeaderTimeout = 5 * time.Second

// Run starts every component and blocks until ctx is canceled or one of them fails.
// The buzzer is silenced and released on every return path once it has been opened.
//
//nolint:funlen // Linear wiring of the daemon; splitting it hides the startup order.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "tagguard")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	} else {
		logger.WarnKV(ctx, "Unknown log level, keeping info", "log_level", cfg.LogLevel)
	}

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(ps.Processes, os.Getpid()); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(registry)

	svc, err := newService(ctx, repository.NewFileRepository(cfg.DeviceFile), cfg.Notifier.DeviceToken)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	source, closeSource, err := openScanner(opts)
	if err != nil {
		return err
	}

	defer closeSource()

	listenAddress := cfg.ServerAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	actuator, err := openActuator(ctx, cfg, opts.DryRun)
	if err != nil {
		_ = lis.Close()

		return err
	}

	buzz := buzzer.New(actuator, cfg.Buzzer.OnPercent)

	// The monitor releases the buzzer itself; this covers paths where it never ran.
	defer func() {
		if err := buzz.Close(); err != nil {
			logger.ErrorKV(ctx, "Failed to release buzzer", "error", err)
		}
	}()

	dispatcher := notify.NewDispatcher(
		buildSender(ctx, cfg, svc),
		notify.WithMetrics(m),
		notify.WithSendTimeout(cfg.Timeout),
	)

	controller := monitor.NewController(monitor.Settings{
		Target:            cfg.TargetName,
		RSSIThreshold:     cfg.RSSIThreshold,
		DangerThreshold:   cfg.DangerThreshold,
		AlertDuration:     cfg.AlertDuration,
		SignalLossTimeout: cfg.SignalLossTimeout,
	}, buzz, dispatcher, m)

	svc.attach(controller)

	grpcServer := grpc.NewServer()
	api.RegisterGuardServer(grpcServer, api.NewServer(svc))

	advertisements := make(chan proximity.Advertisement, scanner.DefaultBufferSize)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(gctx, advertisements, cfg.TickInterval)
	})

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		defer close(advertisements)

		if err := source.Scan(gctx, advertisements); err != nil {
			return fmt.Errorf("scan: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		logger.InfoKV(ctx, "Status server listening", "listen_address", lis.Addr().String())

		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		grpcServer.GracefulStop()

		return nil
	})

	if cfg.MetricsAddress != "" {
		serveMetrics(gctx, g, cfg.MetricsAddress, m)
	}

	err = g.Wait()

	logger.Info(ctx, "Tag guard stopped")

	return err
}

// serveMetrics runs the Prometheus endpoint inside g until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, address string, m *metrics.Metrics) {
	server := &http.Server{
		Addr:              address,
		Handler:           m.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		logger.InfoKV(ctx, "Metrics server listening", "listen_address", address)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve metrics: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readHeaderTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})
}

// openScanner picks the advertisement source.
//
//nolint:ireturn // The source depends on options.
func openScanner(opts *Options) (scanner.Scanner, func(), error) {
	switch opts.ReplayFile {
	case "":
		return scanner.NewBLEScanner(), func() {}, nil
	case "-":
		return scanner.NewReplayScanner(os.Stdin, opts.ReplayInterval), func() {}, nil
	}

	file, err := os.Open(filepath.Clean(opts.ReplayFile))
	if err != nil {
		return nil, nil, fmt.Errorf("open replay file: %w", err)
	}

	closeFile := func() {
		_ = file.Close()
	}

	return scanner.NewReplayScanner(file, opts.ReplayInterval), closeFile, nil
}

// openActuator opens the GPIO buzzer, or a logging stand-in for dry runs.
//
//nolint:ireturn // The hardware depends on options.
func openActuator(ctx context.Context, cfg *config.Config, dryRun bool) (buzzer.Actuator, error) {
	if dryRun {
		logger.Info(ctx, "Dry run: buzzer output is only logged")

		return buzzer.NewLogActuator(logger.WithMinLevel(ctx, zapcore.DebugLevel)), nil
	}

	actuator, err := buzzer.OpenPWM(cfg.Buzzer.Pin, cfg.Buzzer.FrequencyHz)
	if err != nil {
		return nil, fmt.Errorf("open buzzer on %s: %w", cfg.Buzzer.Pin, err)
	}

	logger.InfoKV(ctx, "Buzzer ready", "pin", cfg.Buzzer.Pin, "frequency_hz", cfg.Buzzer.FrequencyHz)

	return actuator, nil
}

// buildSender returns the FCM sender, or a disabled one when credentials are unusable.
// Push problems are reported but never stop the daemon: buzzer alerts still work.
//
//nolint:ireturn // Degraded mode swaps implementations.
func buildSender(ctx context.Context, cfg *config.Config, tokens notify.TokenResolver) notify.Sender {
	account, err := notify.LoadServiceAccount(cfg.Notifier.CredentialsFile)
	if err != nil {
		logger.ErrorKV(ctx, "Push notifications disabled", "error", err)

		return notify.Disabled{}
	}

	sender, err := notify.NewFCMSender(account, notify.FCMOptions{
		ProjectID:   cfg.Notifier.ProjectID,
		Endpoint:    cfg.Notifier.Endpoint,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		MinInterval: cfg.Notifier.MinInterval,
		Tokens:      tokens,
	})
	if err != nil {
		logger.ErrorKV(ctx, "Push notifications disabled", "error", err)

		return notify.Disabled{}
	}

	logger.InfoKV(ctx, "Push notifications enabled", "project_id", cfg.Notifier.ProjectID, "account", account.ClientEmail)

	return sender
}
