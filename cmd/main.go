package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/swiss/internal/adapters/http/api"
	"github.com/okian/swiss/internal/adapters/http/live"
	"github.com/okian/swiss/internal/adapters/http/site"
	"github.com/okian/swiss/internal/adapters/http/swagger"
	"github.com/okian/swiss/internal/adapters/repository"
	"github.com/okian/swiss/internal/adapters/snapshot"
	service "github.com/okian/swiss/internal/app"
	"github.com/okian/swiss/internal/config"
	"github.com/okian/swiss/internal/domain/model"
	"github.com/okian/swiss/internal/domain/types"
	"github.com/okian/swiss/pkg/logger"
	"github.com/okian/swiss/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:], os.Stdout); err != nil {
			os.Stderr.WriteString("hash-password: " + err.Error() + "\n")
			os.Exit(2)
		}
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get().Named("main")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, "server exited with error", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// hashPassword prints the bcrypt hash of args[0] for admin_password_hash.
func hashPassword(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: swiss hash-password <password>")
	}
	h, err := api.HashPassword(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, h)
	return err
}

// application holds every long-lived component so they can be stopped in order.
type application struct {
	handler   http.Handler
	svc       *service.Service
	hub       *live.Hub
	scheduler *snapshot.Scheduler
}

// build opens the store, starts the service and wires the HTTP surface.
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.Get().Named("main")

	store, err := repository.New(ctx, cfg.StoreDriver, cfg.DatabaseURL,
		repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
		repository.WithConnectTimeout(cfg.ConnectTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info(ctx, "store opened", logger.String("driver", cfg.StoreDriver))

	app := &application{}
	app.hub = live.NewHub(live.WithInitial(func(ctx context.Context) (types.Update, error) {
		rows, err := app.svc.Standings(ctx)
		if err != nil {
			return types.Update{}, err
		}
		return types.Update{
			Type:      types.UpdateType,
			Event:     model.Event{Kind: model.EventConnected, At: time.Now().UTC()},
			Standings: rows,
		}, nil
	}))

	app.svc = service.New(
		service.WithStore(store),
		service.WithPublishers(app.hub),
		service.WithWorkerCount(cfg.NotifyWorkerCount),
		service.WithQueueSize(cfg.NotifyQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
	)
	if err := app.svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}

	opts := []api.Option{
		api.WithStats(app.svc),
		api.WithLive(app.hub),
		api.WithCORSOrigins(cfg.Origins()),
		api.WithAuth(api.NewAuthenticator(cfg.AdminJWTSecret, cfg.AdminPasswordHash, cfg.TokenTTL())),
	}

	if cfg.SnapshotEnabled {
		uploader, err := snapshot.NewS3Uploader(ctx, snapshot.S3Config{
			Bucket:          cfg.SnapshotBucket,
			Region:          cfg.SnapshotRegion,
			Endpoint:        cfg.SnapshotEndpoint,
			AccessKeyID:     cfg.SnapshotAccessKeyID,
			SecretAccessKey: cfg.SnapshotSecretAccessKey,
		})
		if err != nil {
			_ = app.svc.Stop(ctx)
			return nil, fmt.Errorf("snapshot uploader: %w", err)
		}
		exporter := snapshot.NewExporter(app.svc, uploader, cfg.TournamentName, snapshot.WithPrefix(cfg.SnapshotPrefix))
		opts = append(opts, api.WithExporter(exporter))

		if interval := cfg.SnapshotInterval(); interval > 0 {
			app.scheduler, err = snapshot.NewScheduler(exporter, interval)
			if err != nil {
				_ = app.svc.Stop(ctx)
				return nil, fmt.Errorf("snapshot scheduler: %w", err)
			}
			app.scheduler.Start()
			log.Info(ctx, "snapshot export scheduled",
				logger.String("dir", exporter.Dir()), logger.Duration("interval", interval))
		}
	}

	r := chi.NewRouter()
	api.NewServer(app.svc, opts...).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	app.handler = r
	return app, nil
}

// shutdown stops components in reverse dependency order.
func (a *application) shutdown(ctx context.Context) error {
	var errs []error
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}
	if err := a.svc.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("service: %w", err))
	}
	a.hub.Close()
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get().Named("main")

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server",
			logger.String("addr", cfg.Addr), logger.String("tournament", cfg.TournamentName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := app.shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		log.Info(shutdownCtx, "server stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

// startSystemMetricsUpdater refreshes process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
