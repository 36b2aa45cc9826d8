package location

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"geocapture/db"
	"geocapture/models"

	"github.com/goccy/go-json"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// CaptureInput is a visitor submission. All three fields are required.
type CaptureInput struct {
	Lat      Coordinate `json:"lat" validate:"required"`
	Lon      Coordinate `json:"lon" validate:"required"`
	ImageURL string     `json:"imageUrl" validate:"required"`
}

// Coordinate is kept as text. JSON numbers are accepted and stored verbatim.
type Coordinate string

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("coordinate must be a string or number: %w", err)
	}
	*c = Coordinate(n.String())
	return nil
}

// Page is one page of the dashboard listing.
type Page struct {
	Records      []*models.LocationRecord
	CurrentPage  int
	TotalPages   int
	TotalRecords int64
	Limit        int
	IP           string
}

type LocationService struct {
	repo db.LocationRepository
	now  func() time.Time
}

func NewLocationService(repo db.LocationRepository) *LocationService {
	return &LocationService{repo: repo, now: time.Now}
}

// Create stores a validated submission with an already resolved IP.
func (s *LocationService) Create(ctx context.Context, in CaptureInput, ip string) (*models.LocationRecord, error) {
	return s.repo.Create(ctx, &models.LocationRecord{
		Lat:       string(in.Lat),
		Lon:       string(in.Lon),
		IP:        ip,
		ImageURL:  in.ImageURL,
		CreatedAt: s.now(),
	})
}

func (s *LocationService) FindByID(ctx context.Context, id string) (*models.LocationRecord, error) {
	return s.repo.FindByID(ctx, id)
}

// FindAll returns every record, newest first.
func (s *LocationService) FindAll(ctx context.Context) ([]*models.LocationRecord, error) {
	return s.repo.FindAll(ctx)
}

// List returns page (1-based) of size limit, newest first, optionally only
// records from ip. limit is capped at MaxLimit. A page past the end is empty.
func (s *LocationService) List(ctx context.Context, page, limit int, ip string) (*Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total, err := s.repo.Count(ctx, ip)
	if err != nil {
		return nil, err
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	// Skip is only computed for pages that exist, so it cannot overflow.
	records := []*models.LocationRecord{}
	if page <= totalPages {
		records, err = s.repo.FindPage(ctx, models.ListOptions{
			Skip:  (page - 1) * limit,
			Limit: limit,
			IP:    ip,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Page{
		Records:      records,
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
		Limit:        limit,
		IP:           ip,
	}, nil
}

func (s *LocationService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}

// DeleteAll removes every record and returns how many were removed.
func (s *LocationService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

// Stats counts all records, records since local midnight, distinct IPs, and
// per-hour creations over the trailing 24 hours.
func (s *LocationService) Stats(ctx context.Context) (*models.Stats, error) {
	now := s.now()

	total, err := s.repo.Count(ctx, "")
	if err != nil {
		return nil, err
	}

	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	today, err := s.repo.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	ips, err := s.repo.DistinctIPs(ctx)
	if err != nil {
		return nil, err
	}

	hourly, err := s.repo.HourlySince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate hourly data: %w", err)
	}
	if hourly == nil {
		hourly = []models.HourlyBucket{}
	}

	return &models.Stats{
		TotalRecords: total,
		TodayCount:   today,
		UniqueIPs:    len(ips),
		HourlyData:   hourly,
	}, nil
}

// ParsePagination reads page and limit from a query string. Missing, malformed
// or non-positive values fall back to the defaults.
func ParsePagination(q url.Values) (page, limit int) {
	page = positiveInt(q.Get("page"), DefaultPage)
	limit = positiveInt(q.Get("limit"), DefaultLimit)
	return page, limit
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
