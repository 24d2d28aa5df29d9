package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/fuelops/internal/adapter/fsm"
	handler "github.com/neomorfeo/fuelops/internal/adapter/http"
	oteladapter "github.com/neomorfeo/fuelops/internal/adapter/otel"
	"github.com/neomorfeo/fuelops/internal/adapter/river"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/config"
	"github.com/neomorfeo/fuelops/internal/domain"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the audit worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}
}

// newServices wires the application services onto store.
func newServices(store domain.TxStore, recorder domain.AuditRecorder, logger *slog.Logger) handler.Services {
	return handler.Services{
		Tenants:   app.NewTenantService(store),
		Orders:    app.NewOrderService(store, fsm.New(), recorder, logger),
		Clients:   app.NewClientService(store, recorder, logger),
		Locations: app.NewLocationService(store, recorder, logger),
		Trucks:    app.NewTruckService(store, recorder, logger),
		Activity:  app.NewActivityService(store.ActivityLogs()),
		Dashboard: app.NewDashboardService(store),
	}
}

func newRouter(db handler.Pinger, svc handler.Services, auth *handler.Authenticator) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(otelchi.Middleware("fuelops", otelchi.WithChiRoutes(router)))
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", handler.Healthz(db))
	handler.NewAPI(router, version, svc, auth)
	return router
}

// run starts the service and blocks until ctx is cancelled, then shuts down
// the HTTP server and the River client within cfg.ShutdownTimeout.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set to serve the API")
	}

	// --- Observability ---
	providers, err := oteladapter.Setup(ctx, oteladapter.Config{
		ServiceName:    cfg.OtelServiceName,
		ServiceVersion: version,
		Environment:    cfg.OtelEnvironment,
		Exporter:       cfg.OtelExporter,
		Insecure:       cfg.OtelInsecure,
		SampleRatio:    cfg.OtelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	riverClient, err := river.Setup(ctx, db, store.ActivityLogs(), cfg.AuditWorkers)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	recorder, err := oteladapter.NewTracingRecorder(river.NewRecorder(riverClient))
	if err != nil {
		return fmt.Errorf("audit recorder: %w", err)
	}

	// --- Application ---
	svc := newServices(oteladapter.NewTracingStore(store), recorder, logger)

	// --- Adapters (in) ---
	auth, err := handler.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(db, svc, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("fuelops listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		return errors.Join(
			srv.Shutdown(shutdownCtx),
			riverClient.Stop(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
