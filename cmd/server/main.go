package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"medibot-afrika/internal/agent"
	"medibot-afrika/internal/config"
	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/history"
	"medibot-afrika/internal/httpapi"
	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/platform/metrics"
	appmw "medibot-afrika/internal/platform/middleware"
	"medibot-afrika/internal/platform/telegram"
	"medibot-afrika/internal/report"
	"medibot-afrika/internal/session"
)

// readinessCheck reports whether a backing service is reachable.
type readinessCheck func(ctx context.Context) error

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(os.Stdout, cfg.Server.LogLevel)
	log := logging.Logger()

	// 1. Storage
	ctx := context.Background()
	blobs, checks, closeStore, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open history storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	store := history.NewStore(blobs, cfg.Storage.Key, cfg.Storage.Capacity)
	log.Info("history storage ready",
		"backend", cfg.Storage.Backend,
		"records", len(store.Load(ctx)),
		"capacity", store.Capacity(),
	)

	// 2. Clients
	var provider consultation.DiagnosisProvider
	switch cfg.AI.Provider {
	case config.ProviderDeepSeek:
		provider = agent.NewDeepSeekClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	default:
		provider = agent.NewMockProvider(cfg.AI.MockDelay)
	}

	var sender report.Sender
	if cfg.Telegram.Token != "" {
		sender = telegram.NewClient(cfg.Telegram.Token)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, referral slips will not be pushed to the clinic")
	}
	slips := report.NewService(sender, cfg.Telegram.ClinicChatID, cfg.Report.FontPaths, consultation.Language(cfg.Report.Language))

	// 3. Services
	var engineOpts []consultation.Option
	if sender != nil {
		engineOpts = append(engineOpts, consultation.WithNotifier(slips))
	}
	sessions := session.NewManager(func() *consultation.Engine {
		return consultation.NewEngine(provider, store, engineOpts...)
	}, cfg.MaxSessions)
	handler := httpapi.NewHandler(sessions, store, slips)
	limiter := appmw.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(appmw.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(appmw.CORS)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(checks))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		httpapi.RegisterRoutes(r, handler, limiter.Middleware)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	log.Info("server starting",
		"port", cfg.Server.Port,
		"env", cfg.Server.Env,
		"provider", cfg.AI.Provider,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	log.Info("server stopped")
}

func openBlobStore(ctx context.Context, cfg *config.Config) (history.BlobStore, map[string]readinessCheck, func(), error) {
	checks := map[string]readinessCheck{}
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return history.NewMemoryBlobStore(), checks, noop, nil

	case config.BackendPostgres:
		db, err := connectDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := runMigrations(cfg.Database); err != nil {
			db.Close()
			return nil, nil, noop, err
		}
		checks["database"] = db.PingContext
		return history.NewPostgresBlobStore(db), checks, func() { db.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return history.NewRedisBlobStore(client, cfg.Redis.Prefix), checks, func() { client.Close() }, nil

	default:
		blobs, err := history.NewFileBlobStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, noop, err
		}
		return blobs, checks, noop, nil
	}
}

// connectDB retries while the database container starts.
func connectDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			logging.Logger().Info("connected to database")
			return db, nil
		}
		logging.Logger().Info("waiting for database", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database: %w", err)
}

func runMigrations(cfg config.DatabaseConfig) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.URL)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	logging.Logger().Info("migrations applied")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func readyHandler(checks map[string]readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := map[string]string{
			"server": "ready",
		}
		allReady := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				results[name] = "not ready: " + err.Error()
				allReady = false
			} else {
				results[name] = "ready"
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": results,
		})
	}
}
