package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/hazardscope/internal/httpapi"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/observability"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/source"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

// Config holds the server's command-line configuration.
type Config struct {
	ListenAddress  string
	HTTPAddress    string
	PreloadedPath  string
	ConfiguredPath string
	LogLevel       string
	LogFormat      string
	FrameWorkers   int
	MaxFrames      int
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.ListenAddress, "grpc-addr", ":50051", "TCP address the visualizer gRPC server listens on")
	flag.StringVar(&cfg.HTTPAddress, "http-addr", ":8080", "HTTP address for GeoJSON, charts, /healthz and /metrics (empty disables)")
	flag.StringVar(&cfg.PreloadedPath, "preloaded", "", "Scenario CSV or SQLite dataset for the preloaded slot")
	flag.StringVar(&cfg.ConfiguredPath, "configured", "", "Scenario CSV or SQLite dataset for the configured slot")
	flag.StringVar(&cfg.LogLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", os.Getenv("LOG_FORMAT"), "Log format (text or json)")
	flag.IntVar(&cfg.FrameWorkers, "frame-workers", 0, "Concurrent frame compositions per request (0 uses GOMAXPROCS)")
	flag.IntVar(&cfg.MaxFrames, "max-frames", viz.DefaultMaxFrames, "Maximum timesteps per GetMarkerFrames call")
	flag.Parse()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg, log, lis); err != nil {
		log.Error(ctx, "visualizer server failed", logging.Err(err))
		os.Exit(1)
	}
}

// run loads the configured slots, serves gRPC on lis and HTTP on
// cfg.HTTPAddress, and blocks until ctx is cancelled. SIGHUP reloads every
// slot that has a loader.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewVizCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics collector: %w", err)
	}
	snapMetrics, err := observability.NewSnapshotCollector(reg)
	if err != nil {
		return fmt.Errorf("init snapshot metrics: %w", err)
	}

	store := snapshot.NewStore(
		snapshot.WithLogger(log),
		snapshot.WithMetricsRecorder(snapMetrics),
	)
	if err := loadSlots(ctx, store, cfg, log); err != nil {
		return err
	}

	svc := viz.NewService(store,
		viz.WithServiceLogger(log),
		viz.WithFrameWorkers(cfg.FrameWorkers),
		viz.WithMaxFrames(cfg.MaxFrames),
	)
	server := viz.NewGRPCServer(svc, log, collector)

	var httpSrv *http.Server
	if cfg.HTTPAddress != "" {
		httpSrv = serveHTTP(cfg.HTTPAddress, httpapi.New(store, svc,
			httpapi.WithLogger(log),
			httpapi.WithCollector(collector),
		), log)
	}

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting visualizer gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		serveErr <- server.Serve(lis)
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			log.Info(ctx, "SIGHUP received; reloading snapshots")
			if err := store.ReloadAll(ctx); err != nil {
				log.Warn(ctx, "snapshot reload incomplete", logging.Err(err))
			}
		case err := <-serveErr:
			runErr = fmt.Errorf("grpc serve: %w", err)
			break loop
		}
	}

	log.Info(context.Background(), "shutting down visualizer server")
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if httpSrv != nil {
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

// loadSlots registers a loader per configured path and publishes the first
// snapshot. The preloaded slot must load; the configured slot may fail and
// be reloaded later.
func loadSlots(ctx context.Context, store *snapshot.Store, cfg Config, log logging.Logger) error {
	if cfg.PreloadedPath != "" {
		if _, err := store.Load(ctx, snapshot.SlotPreloaded, source.LoaderFor(cfg.PreloadedPath, log)); err != nil {
			return err
		}
	}
	if cfg.ConfiguredPath != "" {
		if _, err := store.Load(ctx, snapshot.SlotConfigured, source.LoaderFor(cfg.ConfiguredPath, log)); err != nil {
			log.Warn(ctx, "configured snapshot unavailable", logging.String("path", cfg.ConfiguredPath), logging.Err(err))
		}
	}
	if cfg.PreloadedPath == "" && cfg.ConfiguredPath == "" {
		log.Warn(ctx, "no datasets configured; queries will return NotFound until a slot is loaded")
	}
	return nil
}

func serveHTTP(addr string, handler http.Handler, log logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "http server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving HTTP API", logging.String("addr", addr))
	return srv
}
