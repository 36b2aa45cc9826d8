package testutils

import (
	"context"
	"errors"
	"time"

	"geocapture/db"
	"geocapture/models"
)

// ErrStoreDown is returned by every FailingRepository operation.
var ErrStoreDown = errors.New("store down")

// FailingRepository is a LocationRepository whose operations all fail.
type FailingRepository struct{}

var _ db.LocationRepository = FailingRepository{}

func (FailingRepository) Close() error { return nil }

func (FailingRepository) Create(ctx context.Context, record *models.LocationRecord) (*models.LocationRecord, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) FindByID(ctx context.Context, id string) (*models.LocationRecord, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) FindPage(ctx context.Context, opts models.ListOptions) ([]*models.LocationRecord, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) FindAll(ctx context.Context) ([]*models.LocationRecord, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) DeleteByID(ctx context.Context, id string) error { return ErrStoreDown }

func (FailingRepository) DeleteAll(ctx context.Context) (int64, error) { return 0, ErrStoreDown }

func (FailingRepository) Count(ctx context.Context, ip string) (int64, error) {
	return 0, ErrStoreDown
}

func (FailingRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, ErrStoreDown
}

func (FailingRepository) DistinctIPs(ctx context.Context) ([]string, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) HourlySince(ctx context.Context, since time.Time) ([]models.HourlyBucket, error) {
	return nil, ErrStoreDown
}

func (FailingRepository) Ping(ctx context.Context) error { return ErrStoreDown }
