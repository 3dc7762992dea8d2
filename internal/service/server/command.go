package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/viktoriya-kutsarova/project-gravity/internal/api/grpc/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/platform/instance"
	"github.com/viktoriya-kutsarova/project-gravity/internal/platform/power"
	"github.com/viktoriya-kutsarova/project-gravity/internal/repository/journal"
	"github.com/viktoriya-kutsarova/project-gravity/internal/telemetry"
	"github.com/viktoriya-kutsarova/project-gravity/internal/version"
)

// ServiceName identifies the service in logs, traces and the wake lock.
const ServiceName = "alarm-service"

// Options controls the alarm-service process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// JournalFile overrides the run journal database path.
	JournalFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the alarm service and blocks until ctx is cancelled or the gRPC
// server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, ServiceName)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger.SetLevelFromString(settings.LogLevel)
	logger.InfoKV(ctx, "Starting alarm service", version.KV()...)

	if !settings.AllowMultipleInstances {
		if err := instance.EnsureSingle(""); err != nil {
			return err
		}
	}

	journalFile := settings.JournalFile
	if opts.JournalFile != "" {
		journalFile = opts.JournalFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, ServiceName, settings.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancel()

		if err := shutdownTracing(flushCtx); err != nil {
			logger.WarnKV(ctx, "Unable to flush traces", "error", err)
		}
	}()

	repo, err := journal.Open(ctx, journalFile)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		if err := repo.Close(); err != nil {
			logger.WarnKV(ctx, "Unable to close journal", "error", err)
		}
	}()

	serviceOpts := serviceOptions{
		uiCommand: settings.UICommand,
		journal:   repo,
	}

	if !settings.DisableWakeLock {
		serviceOpts.wakeLock = power.NewWakeLock(ServiceName, "Fall alarm countdown")
	}

	svc, err := newService(ctx, serviceOpts)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	if err := svc.start(ctx); err != nil {
		_ = lis.Close()
		svc.stop(ctx)

		return err
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alarm service listening", "listen_address", listenAddress, "journal_file", journalFile)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info(ctx, "Shutting down alarm service")

		// Closing the hub ends open Watch streams so GracefulStop can finish.
		svc.stop(ctx)
		gracefulStop(grpcServer, settings.Timeout)

		return nil
	})

	err = g.Wait()

	logger.Info(ctx, "GRPC server stopped")

	return err
}

// gracefulStop drains the server, forcing it down after timeout.
func gracefulStop(server *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})

	go func() {
		server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		server.Stop()
		<-done
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Loopback addresses stay on loopback; anything else binds every interface.
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return configAddr, nil
	}

	return ":" + port, nil
}
