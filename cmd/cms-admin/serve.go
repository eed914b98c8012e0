package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cmsadmin/internal/api"
	"cmsadmin/internal/auth"
	"cmsadmin/internal/backend"
	"cmsadmin/internal/config"
	"cmsadmin/internal/form"
	"cmsadmin/internal/metrics"
	"cmsadmin/internal/preview"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/schema"
	"cmsadmin/internal/service"
	"cmsadmin/internal/storage"
	"cmsadmin/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	config.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Redis is optional: without it previews live in memory and
	// notifications only reach sessions on this instance.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	bus := pubsub.New(rdb, logger)
	hub := ws.NewHub(logger)
	go hub.Run()
	bus.SetWSHub(hub)
	go func() {
		if err := bus.Listen(ctx); err != nil {
			logger.Error("Event listener stopped", zap.Error(err))
		}
	}()

	var previews preview.Store
	if rdb != nil {
		previews = preview.NewRedisStore(rdb, cfg.PreviewTTL, logger)
	} else {
		previews = preview.NewMemoryStore(cfg.CacheSize, cfg.PreviewTTL)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Timeout middleware - skip for WebSocket upgrades
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, req)
				return
			}
			middleware.Timeout(60*time.Second)(next).ServeHTTP(w, req)
		})
	})

	var uploader storage.Uploader
	if cfg.UseS3() {
		s3u, err := storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to set up S3 uploads: %w", err)
		}
		uploader = s3u
	} else {
		local, err := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicURL)
		if err != nil {
			return err
		}
		uploader = local
		r.Mount("/files", api.Files(local, logger))
	}

	client := backend.New(cfg.BackendURL, logger,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
		backend.WithCache(backend.NewCache(cfg.CacheSize, cfg.CacheTTL)),
		backend.WithObserver(m.ObserveBackend),
	)

	imports := service.NewImportService(client, previews, bus, logger)
	imports.SetRowCounter(m)

	checker := form.NewChecker(schema.NewCompilerWithCache(64))
	binders := service.NewBinders(m.Uploader(uploader), cfg.CacheSize, cfg.PreviewTTL)
	editor := service.NewEditorService(client, checker, binders, bus, logger)
	editor.SetImportService(imports)

	r.Mount("/v1", api.Routes(api.Dependencies{
		Auth:    auth.NewJWTConfig(cfg.JWTSecret),
		Editor:  editor,
		Imports: imports,
		Records: service.NewRecordService(client, bus, logger),
		Hub:     hub,
		Log:     logger,

		AllowedOrigins: cfg.AllowedOrigins,
	}))

	r.Handle("/metrics", m.Handler())

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	logger.Info("Starting server",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.BackendURL),
		zap.Bool("redis", rdb != nil),
		zap.Bool("s3", cfg.UseS3()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
