package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"geocapture/models"
)

const locationColumns = `id, lat, lon, ip, image_url, created_at`

// SQLiteLocationRepository implements the LocationRepository interface for SQLite
type SQLiteLocationRepository struct {
	db *sql.DB
}

// NewSQLiteLocationRepository creates a new SQLiteLocationRepository
func NewSQLiteLocationRepository(db *sql.DB) *SQLiteLocationRepository {
	return &SQLiteLocationRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteLocationRepository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable
func (r *SQLiteLocationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts a new record. ID and CreatedAt are assigned here.
func (r *SQLiteLocationRepository) Create(ctx context.Context, record *models.LocationRecord) (*models.LocationRecord, error) {
	created := *record
	created.ID = GenerateID()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	created.CreatedAt = created.CreatedAt.UTC()

	query := `INSERT INTO locations (` + locationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		created.ID, created.Lat, created.Lon, created.IP, created.ImageURL, created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting location: %w", err)
	}

	return &created, nil
}

// Import stores a record keeping its existing ID and timestamp. Existing rows
// with the same ID are left untouched.
func (r *SQLiteLocationRepository) Import(ctx context.Context, record *models.LocationRecord) (bool, error) {
	query := `INSERT OR IGNORE INTO locations (` + locationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		record.ID, record.Lat, record.Lon, record.IP, record.ImageURL, record.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("error importing location: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// FindByID finds a record by ID
func (r *SQLiteLocationRepository) FindByID(ctx context.Context, id string) (*models.LocationRecord, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = ?`
	record, err := scanLocation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning location: %w", err)
	}
	return record, nil
}

// FindPage returns one page of records, newest first
func (r *SQLiteLocationRepository) FindPage(ctx context.Context, opts models.ListOptions) ([]*models.LocationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT ` + locationColumns + ` FROM locations`
	args := []interface{}{}
	if opts.IP != "" {
		query += ` WHERE ip = ?`
		args = append(args, opts.IP)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Skip)

	return r.query(ctx, query, args...)
}

// FindAll returns every record, newest first
func (r *SQLiteLocationRepository) FindAll(ctx context.Context) ([]*models.LocationRecord, error) {
	return r.FindPage(ctx, models.ListOptions{})
}

// DeleteByID deletes a record by ID
func (r *SQLiteLocationRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every record and reports how many were removed
func (r *SQLiteLocationRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM locations`)
	if err != nil {
		return 0, fmt.Errorf("error deleting locations: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of records, optionally for a single IP
func (r *SQLiteLocationRepository) Count(ctx context.Context, ip string) (int64, error) {
	query := `SELECT COUNT(*) FROM locations`
	args := []interface{}{}
	if ip != "" {
		query += ` WHERE ip = ?`
		args = append(args, ip)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting locations: %w", err)
	}
	return count, nil
}

// CountSince returns the number of records created at or after since
func (r *SQLiteLocationRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE created_at >= ?`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting recent locations: %w", err)
	}
	return count, nil
}

// DistinctIPs returns every distinct IP value
func (r *SQLiteLocationRepository) DistinctIPs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT ip FROM locations`)
	if err != nil {
		return nil, fmt.Errorf("error querying distinct ips: %w", err)
	}
	defer rows.Close()

	ips := []string{}
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, fmt.Errorf("error scanning ip: %w", err)
		}
		ips = append(ips, ip)
	}
	return ips, rows.Err()
}

// HourlySince groups records created at or after since by UTC date and hour
func (r *SQLiteLocationRepository) HourlySince(ctx context.Context, since time.Time) ([]models.HourlyBucket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT created_at FROM locations WHERE created_at >= ?`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying hourly locations: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return nil, fmt.Errorf("error scanning created_at: %w", err)
		}
		times = append(times, createdAt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bucketByHour(times), nil
}

func (r *SQLiteLocationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.LocationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying locations: %w", err)
	}
	defer rows.Close()

	records := []*models.LocationRecord{}
	for rows.Next() {
		record, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row rowScanner) (*models.LocationRecord, error) {
	var record models.LocationRecord
	err := row.Scan(&record.ID, &record.Lat, &record.Lon, &record.IP, &record.ImageURL, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

// bucketByHour counts timestamps per UTC (date, hour), sorted ascending.
func bucketByHour(times []time.Time) []models.HourlyBucket {
	counts := make(map[models.HourKey]int)
	for _, t := range times {
		t = t.UTC()
		counts[models.HourKey{Date: t.Format("2006-01-02"), Hour: t.Hour()}]++
	}

	buckets := make([]models.HourlyBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, models.HourlyBucket{Key: key, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Key.Date != buckets[j].Key.Date {
			return buckets[i].Key.Date < buckets[j].Key.Date
		}
		return buckets[i].Key.Hour < buckets[j].Key.Hour
	})
	return buckets
}
