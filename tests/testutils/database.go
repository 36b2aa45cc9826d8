package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"

	"geocapture/db"
	"geocapture/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func SetupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=10000")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })

	require.NoError(t, db.InitializeSchema(testDB))
	return testDB
}

func SetupTestRepository(t *testing.T) db.LocationRepository {
	t.Helper()
	factory := db.NewRepositoryFactory(SetupTestDatabase(t), nil, "geocapture_test")
	return factory.NewLocationRepository()
}

func GetTestConfig() *config.Config {
	return &config.Config{
		DatabaseType:    config.SQLite,
		SQLitePath:      ":memory:",
		DatabaseName:    "geocapture_test",
		AdminUser:       "test_admin",
		AdminPass:       "test_password",
		Port:            "0",
		UploadURL:       "https://upload.example.test/image/upload",
		UploadPreset:    "test_preset",
		SessionSecret:   "test-session-secret-0123456789abcdef",
		IPLookupURL:     "http://127.0.0.1:0/",
		IPLookupTimeout: config.DefaultLookupTimeout,
		StaticDir:       "public",
	}
}
