package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"geocapture/db"
	"geocapture/internal/auth"
	"geocapture/internal/config"
	"geocapture/internal/ipresolver"
	"geocapture/internal/location"
	"geocapture/internal/logging"
	"geocapture/internal/web"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	logging.Info().
		Int("pid", os.Getpid()).
		Str("runtime", runtime.GOOS+"/"+runtime.GOARCH).
		Str("go", runtime.Version()).
		Msg("Starting geocapture")

	repoFactory, err := connectStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("store", string(cfg.DatabaseType)).Msg("Store connection failed")
	}
	repo := repoFactory.NewLocationRepository()

	if cfg.SessionSecret == "" {
		logging.Warn().Msg("SESSION_SECRET is not set; flash cookies will not survive a restart")
		cfg.SessionSecret = string(securecookie.GenerateRandomKey(32))
	}

	resolver := ipresolver.NewResolver(ipresolver.NewHTTPLookup(cfg.IPLookupURL, nil), cfg.IPLookupTimeout)
	locationHandlers := location.NewLocationHandlers(location.NewLocationService(repo), resolver)
	webHandler := web.NewWebHandler(
		locationHandlers,
		auth.NewStaticAuthenticator(cfg.AdminUser, cfg.AdminPass),
		repo,
		repoFactory.Backend(),
		cfg,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           webHandler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	base := "http://localhost:" + cfg.Port
	logging.Info().
		Str("port", cfg.Port).
		Str("store", repoFactory.Backend()).
		Str("dashboard", base+auth.DashboardPath).
		Str("tracking", base+"/").
		Str("stats", base+"/api/stats").
		Msg("Server running")

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("Server ListenAndServe error")
		}
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Server shutdown error")
		}
	}

	if err := repo.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close store")
	}
	logging.Info().Msg("Services stopped")
}

// connectStore opens the configured backend. Startup does not continue
// without a reachable store.
func connectStore(cfg *config.Config) (*db.RepositoryFactory, error) {
	var (
		sqliteDB    *sql.DB
		mongoClient *mongo.Client
		err         error
	)

	switch cfg.DatabaseType {
	case config.MongoDB:
		logging.Info().Msg("Using MongoDB database")
		mongoClient, err = db.ConnectToMongo(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
	default:
		logging.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite database")
		sqliteDB, err = db.ConnectToSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(sqliteDB); err != nil {
			sqliteDB.Close()
			return nil, err
		}
	}

	return db.NewRepositoryFactory(sqliteDB, mongoClient, cfg.DatabaseName), nil
}
