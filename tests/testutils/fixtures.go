package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"geocapture/db"
	"geocapture/models"

	"github.com/stretchr/testify/require"
)

func CreateTestRecord() *models.LocationRecord {
	return &models.LocationRecord{
		Lat:       "51.5007",
		Lon:       "-0.1246",
		IP:        "203.0.113.10",
		ImageURL:  "https://images.example.test/capture.jpg",
		CreatedAt: time.Now().UTC(),
	}
}

func CreateTestRecordAt(ip string, createdAt time.Time) *models.LocationRecord {
	record := CreateTestRecord()
	record.IP = ip
	record.CreatedAt = createdAt
	return record
}

// SeedRecords stores n records one second apart, the newest at base. Record i
// gets IP 198.51.100.<i%250>.
func SeedRecords(t *testing.T, repo db.LocationRepository, n int, base time.Time) []*models.LocationRecord {
	t.Helper()
	ctx := context.Background()

	saved := make([]*models.LocationRecord, 0, n)
	for i := 0; i < n; i++ {
		record := CreateTestRecordAt(fmt.Sprintf("198.51.100.%d", i%250), base.Add(-time.Duration(i)*time.Second))
		record.Lat = fmt.Sprintf("%d.5", i)
		created, err := repo.Create(ctx, record)
		require.NoError(t, err)
		saved = append(saved, created)
	}
	return saved
}

// StubLookup is a PublicIPLookup returning fixed values.
type StubLookup struct {
	IP    string
	Err   error
	Calls int
}

func (s *StubLookup) PublicIP(ctx context.Context) (string, error) {
	s.Calls++
	return s.IP, s.Err
}
