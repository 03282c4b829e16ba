package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rzbill/pushsub/internal/broadcast"
	cfgpkg "github.com/rzbill/pushsub/internal/config"
	"github.com/rzbill/pushsub/internal/metrics"
	"github.com/rzbill/pushsub/internal/runtime"
	grpcserver "github.com/rzbill/pushsub/internal/server/grpc"
	httpserver "github.com/rzbill/pushsub/internal/server/http"
	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	pebblestore "github.com/rzbill/pushsub/internal/storage/pebble"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = os.Getenv

type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Registry receives the Prometheus collectors. Defaults to a fresh
	// registry so repeated Runs in one process do not collide.
	Registry *prometheus.Registry
	// Ready, if set, is closed once both listeners are bound.
	Ready chan<- struct{}
}

// Run starts the gRPC and HTTP servers and the broadcast scheduler, and
// blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if err := opts.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Build process-wide logger using env/ApplyConfig; defaults: level=info, format=text
	cfg := &logpkg.Config{
		Level:  getenvDefault("PUSHSUB_LOG_LEVEL", "info"),
		Format: getenvDefault("PUSHSUB_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collector := metrics.NewPrometheus(reg, "")

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Metrics:       collector,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting pushsub server",
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Bool("google_api_key_set", opts.Config.Google.APIKey != ""),
		logpkg.Int("max_in_flight", opts.Config.Dispatch.MaxInFlight),
		logpkg.Int("rate_per_sec", opts.Config.Dispatch.RatePerSec),
		logpkg.Int("schedules", len(opts.Config.Schedules)),
	)

	svc := pushsvc.NewWithOptions(rt, pushsvc.Options{
		Logger:  procLogger.With(logpkg.Component("push")),
		Metrics: collector,
	})
	defer svc.Close()

	sched, err := broadcast.NewScheduler(svc.Coordinator(), opts.Config.Schedules, procLogger.With(logpkg.Component("scheduler")))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	gsrv := grpcserver.New(rt, procLogger)
	hsrv := httpserver.New(rt, svc, procLogger, httpserver.WithGatherer(reg))

	grpcAddr, err := gsrv.Listen(opts.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	httpAddr, err := hsrv.Listen(opts.HTTPAddr)
	if err != nil {
		gsrv.Close()
		return fmt.Errorf("http listen: %w", err)
	}
	procLogger.Info("pushsub listening",
		logpkg.Str("grpc", grpcAddr.String()),
		logpkg.Str("http", httpAddr.String()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gsrv.Serve(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("grpc server error", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.Serve(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("http server error", logpkg.Err(err))
		}
	}()
	if opts.Ready != nil {
		close(opts.Ready)
	}

	<-sctx.Done()
	// Stop servers before the deferred service/runtime closes run.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	procLogger.Info("pushsub server stopped")
	return nil
}
