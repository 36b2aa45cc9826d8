package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"geocapture/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// LocationRepository is the record store behind the capture and admin handlers.
type LocationRepository interface {
	Repository
	Create(ctx context.Context, record *models.LocationRecord) (*models.LocationRecord, error)
	FindByID(ctx context.Context, id string) (*models.LocationRecord, error)
	// FindPage returns records newest first.
	FindPage(ctx context.Context, opts models.ListOptions) ([]*models.LocationRecord, error)
	FindAll(ctx context.Context) ([]*models.LocationRecord, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context, ip string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DistinctIPs(ctx context.Context) ([]string, error)
	// HourlySince buckets records by UTC date and hour, ascending.
	HourlySince(ctx context.Context, since time.Time) ([]models.HourlyBucket, error)
	Ping(ctx context.Context) error
}

// RepositoryFactory creates repositories based on the database type
type RepositoryFactory struct {
	SQLiteDB    *sql.DB
	MongoClient *mongo.Client
	DBName      string
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, mongoClient *mongo.Client, dbName string) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB:    sqliteDB,
		MongoClient: mongoClient,
		DBName:      dbName,
	}
}

// NewLocationRepository creates a new location repository
func (f *RepositoryFactory) NewLocationRepository() LocationRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteLocationRepository(f.SQLiteDB)
	}
	return NewMongoLocationRepository(f.MongoClient, f.DBName, "locations")
}

// Backend names the storage engine behind the factory.
func (f *RepositoryFactory) Backend() string {
	if f.SQLiteDB != nil {
		return "sqlite"
	}
	return "mongodb"
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}
