package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/okian/hackreg/internal/adapters/http/api"
	"github.com/okian/hackreg/internal/adapters/http/site"
	"github.com/okian/hackreg/internal/adapters/http/swagger"
	"github.com/okian/hackreg/internal/adapters/repository"
	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/config"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/logger"
	"github.com/okian/hackreg/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// A missing .env is fine; the environment may be set another way.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1) //nolint:gocritic // nothing to clean up yet
	}

	if err := logger.InitWriter(os.Stdout, cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	initMetrics(cfg)

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to build service", logger.Error(err))
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Fatal(ctx, "failed to start service", logger.Error(err))
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	handler, err := newRouter(cfg, svc, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build router", logger.Error(err))
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("event", cfg.EventName),
			logger.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// initMetrics labels every collector with the event so several events can
// share one Prometheus.
func initMetrics(cfg *config.Config) {
	var opts []metrics.Option
	if cfg.EventName != "" {
		opts = append(opts, metrics.WithConstLabels(map[string]string{"event": cfg.EventName}))
	}
	metrics.Init(opts...)
}

// openStore opens the configured storage backend. The initial settings seed
// the store until an admin changes them.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	defaults := repository.WithDefaultSettings(model.Settings{
		TeamsEnabled: cfg.TeamsEnabled,
		QREnabled:    cfg.QREnabled,
	})
	switch cfg.DBDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(defaults), nil
	case config.DriverSQLite:
		return repository.OpenSQL(ctx, repository.DriverSQLite, cfg.DBDSN, defaults)
	case config.DriverPostgres:
		return repository.OpenSQL(ctx, repository.DriverPostgres, cfg.DBDSN, defaults)
	default:
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownDriver, cfg.DBDriver)
	}
}

// newService wires the store, catalog and display settings into a service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	catalog, err := branch.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithCatalog(catalog),
		service.WithLocation(loc),
		service.WithAdmins(cfg.Admins),
		service.WithMaxTeamSize(cfg.MaxTeamSize),
	), nil
}

// newRouter mounts the API, the HTML site and the API reference on one
// router behind the shared request middleware.
func newRouter(cfg *config.Config, svc *service.Service, log logger.Logger) (http.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	auth := api.NewAuthenticator(svc, api.NewSessions(cfg.SessionSecret, cfg.SecureCookies), cfg.AdminKey, log.Named("auth"))

	r := chi.NewRouter()
	r.Use(api.RequestID, api.RequestLogger(log.Named("http")), api.Recovery(log), auth.Middleware)

	api.NewServer(svc, auth, api.WithLogger(log.Named("api"))).Register(r)

	pages, err := site.New(svc, auth,
		site.WithLogger(log.Named("site")),
		site.WithEventName(cfg.EventName),
		site.WithLocation(loc),
		site.WithCSRF([]byte(cfg.CSRFKey), cfg.SecureCookies),
	)
	if err != nil {
		return nil, err
	}
	pages.Register(r)

	swagger.Register(r)
	return r, nil
}

// startSystemMetricsUpdater starts a background loop that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

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
}
