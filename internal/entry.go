package internal

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
	"golang.org/x/sync/errgroup"

	"github.com/ashgrove/hauntmap/internal/api"
	"github.com/ashgrove/hauntmap/internal/sse"
	"github.com/ashgrove/hauntmap/internal/store"
	"github.com/ashgrove/hauntmap/internal/view"
)

// OpenStore opens the configured store driver.
func OpenStore(cfg *Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case StoreDriverREST:
		return store.NewREST(cfg.Store.REST.URL, cfg.Store.REST.Key)
	default:
		return store.OpenSQLite(cfg.Store.SQLite.Path)
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("location_policy", string(cfg.View.LocationPolicy)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st := app.store
	if st == nil {
		var err error
		if st, err = OpenStore(cfg); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
	}
	defer st.Close()

	// Build the view session and load the working set. A fetch failure
	// degrades to an empty but fully functional view rather than an error
	// page.
	session := view.NewSession(st)
	if err := session.Load(ctx, cfg.View.LocationPolicy); err != nil {
		logger.Warn("initial load failed, starting with an empty working set",
			slog.String("error", err.Error()))
	} else {
		logger.Info("working set loaded", slog.Int("count", len(session.Snapshot())))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", api.NewRouter(session, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic stats refresh keeps the days-ago display current without
	// refetching data.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.View.StatsRefresh.Std())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				current := session.Stats(time.Now())
				logger.Debug("stats refreshed",
					slog.Int("total", current.Total),
					slog.Int("days_ago", current.DaysAgo))
				broker.Publish(sse.Event{Type: "stats.updated", Data: current})
			case <-gCtx.Done():
				return nil
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
