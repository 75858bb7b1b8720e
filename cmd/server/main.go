package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/parkyoonha/searchedia-sub001/internal/auth"
	"github.com/parkyoonha/searchedia-sub001/internal/config"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/handler"
	"github.com/parkyoonha/searchedia-sub001/internal/middleware"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/memory"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/postgres"
	postgresWorkspace "github.com/parkyoonha/searchedia-sub001/internal/repository/postgres/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/sqlite"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging, optionally teed into a rotated file
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.NewLogWriter(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"remote_backend", cfg.RemoteBackend,
		"table_prefix", cfg.TablePrefix,
	)

	// ctx outlives the signal so queued writes can drain during shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Token verification: a shared secret wins over JWKS
	var jwtVerifier auth.JWTVerifier
	var err error
	if cfg.SupabaseJWTSecret != "" {
		jwtVerifier, err = auth.NewHMACVerifier(cfg.SupabaseJWTSecret, logger)
	} else {
		jwtVerifier, err = auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	}
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	identity := auth.NewProvider(jwtVerifier, logger)

	// Remote store
	var folderRemote wsRepo.FolderRemote
	var projectRemote wsRepo.ProjectRemote
	switch cfg.RemoteBackend {
	case config.RemoteBackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected", "max_conns", pool.Config().MaxConns)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		folderRemote = postgresWorkspace.NewFolderRemote(repoConfig)
		projectRemote = postgresWorkspace.NewProjectRemote(repoConfig)
	case config.RemoteBackendMemory:
		logger.Warn("using in-process remote store (nothing is uploaded)")
		remote := memory.NewRemote()
		folderRemote = remote.Folders()
		projectRemote = remote.Projects()
	}

	// Device-local cache
	var cache wsRepo.LocalCache
	if cfg.CachePath != "" {
		sqliteCache, err := sqlite.Open(cfg.CachePath, logger)
		if err != nil {
			log.Fatalf("Failed to open local cache: %v", err)
		}
		defer sqliteCache.Close()
		cache = sqliteCache
	} else {
		logger.Warn("CACHE_PATH empty, local cache will not survive a restart")
		cache = memory.NewCache()
	}

	// Workspace state and sync engine
	state := workspace.NewState()
	engine := workspace.NewEngine(workspace.EngineConfig{
		State:              state,
		Cache:              cache,
		Folders:            folderRemote,
		Projects:           projectRemote,
		Identity:           identity,
		InitialLoadTimeout: cfg.InitialLoadTimeout,
		OutboxWorkers:      cfg.OutboxWorkers,
		Logger:             logger,
	})

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := engine.Run(ctx); err != nil {
			logger.Error("sync engine failed", "error", err)
		}
	}()

	logger.Info("services initialized")

	mux := handler.NewRouter(handler.Handlers{
		Workspace:   handler.NewWorkspaceHandler(state, logger),
		Sync:        handler.NewSyncHandler(engine, logger),
		Session:     handler.NewSessionHandler(identity, logger),
		Preferences: handler.NewUserPreferencesHandler(engine.Preferences(), logger),
		Events:      handler.NewEventsHandler(state, engine, nil, logger),
	})

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logging → Recovery → Routes
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Long-lived event streams end when shutdown begins
	streamCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		BaseContext:  func(net.Listener) context.Context { return streamCtx },
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}
	server.RegisterOnShutdown(cancelStreams)

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// Give queued writes a chance to land before the pool closes
	if err := engine.Flush(shutdownCtx); err != nil {
		logger.Warn("pending writes not flushed", "error", err, "pending", engine.Status().PendingWrites)
	}
	cancel()
	<-engineDone

	logger.Info("server stopped")
}
