// Command masteraccount serves the social platform guides site. It takes the
// built-in catalog unless a YAML catalog is configured, loads the admins
// file, and keeps sessions and rendered guides in Valkey. Without Valkey the
// sessions live in memory and nothing is cached. Visits are logged to
// PostgreSQL when a database is configured, and uploads go to S3 or to
// local disk.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masteraccount/internal/auth"
	"masteraccount/internal/cache"
	"masteraccount/internal/catalog"
	"masteraccount/internal/config"
	"masteraccount/internal/content"
	"masteraccount/internal/database"
	"masteraccount/internal/handlers"
	"masteraccount/internal/middleware"
	"masteraccount/internal/render"
	"masteraccount/internal/router"
	"masteraccount/internal/session"
	"masteraccount/internal/storage"
	"masteraccount/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON otherwise.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"content_file", cfg.ContentFile,
	)

	// The catalog is fixed for the life of the process.
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			slog.Error("failed to load catalog", "error", err)
			os.Exit(1)
		}
		slog.Info("catalog loaded", "file", cfg.CatalogFile, "platforms", len(cat.Platforms()))
	}

	creds, err := auth.LoadFile(cfg.AdminsFile)
	switch {
	case errors.Is(err, os.ErrNotExist) && cfg.IsDev():
		creds = auth.Development()
	case err != nil:
		slog.Error("failed to load admins", "error", err)
		os.Exit(1)
	default:
		slog.Info("admins loaded", "count", len(creds.Usernames()))
	}

	ctx := context.Background()

	// Connect to Valkey (sessions, guide cache, visit counter). Without it
	// sessions live in memory and caching is off.
	var (
		sessionBackend session.Backend
		guideCache     *cache.GuideCache
		visitCounter   *cache.VisitCounter
	)
	valkeyClient, err := cache.ConnectValkey(ctx, net.JoinHostPort(cfg.ValkeyHost, cfg.ValkeyPort), cfg.ValkeyPassword, 0)
	if err != nil {
		slog.Warn("valkey unavailable, using in-memory sessions", "error", err)
		sessionBackend = session.NewMemoryBackend()
	} else {
		defer valkeyClient.Close()
		sessionBackend = session.NewValkeyBackend(valkeyClient)
		guideCache = cache.NewGuideCache(valkeyClient, cache.DefaultGuideTTL)
		visitCounter = cache.NewVisitCounter(valkeyClient)
		// Entries may have changed on disk while the server was down.
		guideCache.InvalidateAll(ctx)
	}

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(sessionBackend, secureCookies)

	// Connect to PostgreSQL for the visitor log (optional).
	var db *sql.DB
	if cfg.HasDatabase() {
		db, err = database.Connect(ctx, cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if _, err := database.Migrate(ctx, db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("postgres not configured, visitor log disabled")
	}
	var visitStore *store.VisitStore
	if db != nil {
		visitStore = store.NewVisitStore(db)
	}

	uploads, localDir, err := newUploads(cfg)
	if err != nil {
		slog.Error("failed to initialize upload storage", "error", err)
		os.Exit(1)
	}

	renderer, err := render.New(uploads)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	repo := content.NewRepository(content.NewFileStore(cfg.ContentFile), cat)
	// Load once at startup so a missing or damaged file is reported early.
	repo.Load()

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(renderer, repo, sessionStore, guideCache, visitCounter, visitStore)
	authHandlers := handlers.NewAuth(renderer, sessionStore, creds, creds)
	adminHandlers := handlers.NewAdmin(repo, uploads, sessionStore, guideCache, cfg.MaxUploadBytes())

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, publicHandlers, authHandlers, adminHandlers, router.Options{
		Secure:       secureCookies,
		MaxBody:      cfg.MaxUploadBytes(),
		LoginLimiter: loginLimiter,
		UploadDir:    localDir,
	})

	// Uploads of up to MAX_UPLOAD_MB need a generous read timeout.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newUploads picks the S3 backend when it is configured and the local
// upload directory otherwise. The directory is returned only for the local
// backend, since only then the server has files to serve.
func newUploads(cfg *config.Config) (storage.Backend, string, error) {
	if cfg.HasS3() {
		s3, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return nil, "", err
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s3, "", nil
	}

	local, err := storage.NewLocal(cfg.UploadDir, "/static/uploads")
	if err != nil {
		return nil, "", err
	}
	slog.Info("local upload storage", "dir", local.Dir())
	return local, local.Dir(), nil
}
