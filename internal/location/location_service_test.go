package location

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"geocapture/models"
	"geocapture/tests/testutils"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationService_List(t *testing.T) {
	repo := testutils.SetupTestRepository(t)
	service := NewLocationService(repo)
	ctx := context.Background()
	testutils.SeedRecords(t, repo, 45, time.Now())

	page, err := service.List(ctx, 1, 20, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 20)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(45), page.TotalRecords)
	assert.Equal(t, 1, page.CurrentPage)

	page, err = service.List(ctx, 3, 20, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 5)

	page, err = service.List(ctx, 4, 20, "")
	require.NoError(t, err)
	assert.Empty(t, page.Records)

	page, err = service.List(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, page.CurrentPage)
	assert.Equal(t, DefaultLimit, page.Limit)

	t.Run("HugePageIsEmpty", func(t *testing.T) {
		q, err := url.ParseQuery("page=4611686018427387904&limit=20")
		require.NoError(t, err)
		p, l := ParsePagination(q)

		page, err := service.List(ctx, p, l, "")
		require.NoError(t, err)
		assert.Empty(t, page.Records)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 4611686018427387904, page.CurrentPage)
	})

	t.Run("LimitIsCapped", func(t *testing.T) {
		testutils.SeedRecords(t, repo, MaxLimit, time.Now().Add(-time.Hour))

		page, err := service.List(ctx, 1, 1000000000, "")
		require.NoError(t, err)
		assert.Equal(t, MaxLimit, page.Limit)
		assert.Len(t, page.Records, MaxLimit)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestLocationService_DeleteAll(t *testing.T) {
	repo := testutils.SetupTestRepository(t)
	service := NewLocationService(repo)
	ctx := context.Background()
	testutils.SeedRecords(t, repo, 7, time.Now())

	removed, err := service.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)

	page, err := service.List(ctx, 1, 20, "")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, int64(0), page.TotalRecords)
}

func TestLocationService_CreateAndFind(t *testing.T) {
	repo := testutils.SetupTestRepository(t)
	service := NewLocationService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, CaptureInput{Lat: "1.5", Lon: "2.5", ImageURL: "https://img.test/a.png"}, "203.0.113.5")
	require.NoError(t, err)

	found, err := service.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.5", found.Lat)
	assert.Equal(t, "2.5", found.Lon)
	assert.Equal(t, "203.0.113.5", found.IP)
	assert.Equal(t, "https://img.test/a.png", found.ImageURL)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestLocationService_Stats(t *testing.T) {
	repo := testutils.SetupTestRepository(t)
	service := NewLocationService(repo)
	ctx := context.Background()

	now := time.Date(2026, 5, 10, 15, 20, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	for _, r := range []*models.LocationRecord{
		testutils.CreateTestRecordAt("203.0.113.1", now.Add(-5*time.Hour)),  // 10:20 today
		testutils.CreateTestRecordAt("203.0.113.1", now.Add(-2*time.Hour)),  // 13:20 today
		testutils.CreateTestRecordAt("203.0.113.2", now.Add(-20*time.Hour)), // 19:20 yesterday
		testutils.CreateTestRecordAt("203.0.113.3", now.Add(-48*time.Hour)), // outside the window
	} {
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}

	stats, err := service.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalRecords)
	assert.Equal(t, int64(2), stats.TodayCount)
	assert.Equal(t, 3, stats.UniqueIPs)
	assert.Equal(t, []models.HourlyBucket{
		{Key: models.HourKey{Date: "2026-05-09", Hour: 19}, Count: 1},
		{Key: models.HourKey{Date: "2026-05-10", Hour: 10}, Count: 1},
		{Key: models.HourKey{Date: "2026-05-10", Hour: 13}, Count: 1},
	}, stats.HourlyData)
}

func TestLocationService_StatsEmpty(t *testing.T) {
	service := NewLocationService(testutils.SetupTestRepository(t))

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
	assert.NotNil(t, stats.HourlyData)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query     string
		page, lim int
	}{
		{"", 1, 20},
		{"page=3&limit=10", 3, 10},
		{"page=abc&limit=-5", 1, 20},
		{"page=0&limit=0", 1, 20},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		require.NoError(t, err)
		page, limit := ParsePagination(q)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.lim, limit, tt.query)
	}
}

func TestCoordinate_UnmarshalJSON(t *testing.T) {
	var in CaptureInput
	require.NoError(t, json.Unmarshal([]byte(`{"lat":51.50073,"lon":"-0.1246","imageUrl":"x"}`), &in))
	assert.Equal(t, Coordinate("51.50073"), in.Lat)
	assert.Equal(t, Coordinate("-0.1246"), in.Lon)

	require.NoError(t, json.Unmarshal([]byte(`{"lat":null}`), &in))
	assert.Equal(t, Coordinate(""), in.Lat)

	assert.Error(t, json.Unmarshal([]byte(`{"lat":true}`), &in))
}

func TestWriteCSV(t *testing.T) {
	created := time.Date(2026, 2, 3, 4, 5, 6, 789000000, time.UTC)
	var sb strings.Builder

	err := WriteCSV(&sb, []*models.LocationRecord{
		{Lat: "1.5", Lon: "2.5", IP: "203.0.113.5", ImageURL: `https://img.test/"q".png`, CreatedAt: created},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Latitude,Longitude,IP,Image URL,Created At", lines[0])
	assert.Equal(t, `"1.5","2.5","203.0.113.5","https://img.test/""q"".png","2026-02-03T04:05:06.789Z"`, lines[1])
}
