// Command migrate copies location records from MongoDB into the SQLite store.
//
// It reads MONGO_URL (or MONGODB_URI) and SQLITE_PATH the same way the server
// does. Records keep their IDs, so running it twice imports nothing new.
package main

import (
	"context"
	"fmt"
	"time"

	"geocapture/db"
	"geocapture/internal/config"
	"geocapture/internal/logging"
	"geocapture/models"
)

type recordSource interface {
	FindAll(ctx context.Context) ([]*models.LocationRecord, error)
}

type recordSink interface {
	Import(ctx context.Context, record *models.LocationRecord) (bool, error)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.MongoURI == "" {
		logging.Fatal().Msg("MONGO_URL is not set. Migration cannot continue.")
	}
	if cfg.SQLitePath == "" {
		logging.Fatal().Msg("Migration target must be sqlite; unset DATABASE_TYPE or set it to sqlite")
	}

	logging.Info().Msg("Connecting to MongoDB...")
	mongoClient, err := db.ConnectToMongo(cfg.MongoURI)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	logging.Info().Str("path", cfg.SQLitePath).Msg("Connecting to SQLite...")
	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to SQLite")
	}
	defer sqliteDB.Close()

	if err := db.InitializeSchema(sqliteDB); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize SQLite schema")
	}

	source := db.NewMongoLocationRepository(mongoClient, cfg.DatabaseName, "locations")
	sink := db.NewSQLiteLocationRepository(sqliteDB)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	imported, skipped, err := migrateLocations(ctx, source, sink)
	if err != nil {
		logging.Fatal().Err(err).Int("imported", imported).Msg("Migration failed")
	}
	logging.Info().Int("imported", imported).Int("skipped", skipped).Msg("Migration completed successfully")
}

// migrateLocations copies every record from src to dst. Records dst already
// holds are counted as skipped.
func migrateLocations(ctx context.Context, src recordSource, dst recordSink) (imported, skipped int, err error) {
	records, err := src.FindAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read locations: %w", err)
	}

	for _, record := range records {
		ok, err := dst.Import(ctx, record)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to import location %s: %w", record.ID, err)
		}
		if ok {
			imported++
		} else {
			skipped++
		}
	}
	return imported, skipped, nil
}
