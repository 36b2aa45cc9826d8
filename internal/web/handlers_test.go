package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"geocapture/db"
	"geocapture/internal/auth"
	"geocapture/internal/ipresolver"
	"geocapture/internal/location"
	"geocapture/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHealth struct{ err error }

func (s stubHealth) Ping(ctx context.Context) error { return s.err }

type webFixture struct {
	server *testutils.TestServer
	repo   db.LocationRepository
}

func setupWeb(t *testing.T, health HealthChecker) *webFixture {
	return setupWebWithRepo(t, testutils.SetupTestRepository(t), health)
}

func setupWebWithRepo(t *testing.T, repo db.LocationRepository, health HealthChecker) *webFixture {
	cfg := testutils.GetTestConfig()
	cfg.StaticDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "style.css"), []byte("body{}"), 0o644))

	if health == nil {
		health = repo
	}
	handlers := location.NewLocationHandlers(
		location.NewLocationService(repo),
		ipresolver.NewResolver(&testutils.StubLookup{IP: "198.51.100.1"}, time.Second),
	)
	h := NewWebHandler(handlers, auth.NewStaticAuthenticator(cfg.AdminUser, cfg.AdminPass), health, "sqlite", cfg)

	server := testutils.NewTestServer(t, h.SetupRoutes())
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	server.Client().Jar = jar

	return &webFixture{server: server, repo: repo}
}

func TestTrackPage(t *testing.T) {
	f := setupWeb(t, nil)

	resp := f.server.GET("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "https://upload.example.test/image/upload")
	assert.Contains(t, body, "test_preset")
}

func TestAdminLoginPage(t *testing.T) {
	f := setupWeb(t, nil)

	resp := f.server.GET("/admin?error=" + url.QueryEscape("Invalid credentials"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, testutils.ReadBody(t, resp), "Invalid credentials")
}

func TestLogin(t *testing.T) {
	f := setupWeb(t, nil)

	var ok map[string]interface{}
	resp := f.server.POST("/admin/login", map[string]string{"username": "test_admin", "password": "test_password"})
	testutils.AssertJSONResponse(t, resp, http.StatusOK, &ok)
	assert.Equal(t, true, ok["success"])
	assert.Equal(t, auth.DashboardPath, ok["redirect"])

	resp = f.server.POSTForm("/admin/login", url.Values{"username": {"test_admin"}, "password": {"test_password"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.server.POST("/admin/login", map[string]string{"username": "test_admin", "password": "wrong"})
	testutils.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid credentials")
}

func TestDashboard(t *testing.T) {
	f := setupWeb(t, nil)
	testutils.SeedRecords(t, f.repo, 25, time.Now())

	resp := f.server.GET("/admin/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "25 records")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Equal(t, 20, strings.Count(body, `action="/delete/`))

	resp = f.server.GET("/admin/dashboard?page=2")
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Page 2 of 2")
	assert.Equal(t, 5, strings.Count(body, `action="/delete/`))

	resp = f.server.GET("/admin/dashboard?ip=198.51.100.3")
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "1 records")
}

func TestDeleteRecord(t *testing.T) {
	f := setupWeb(t, nil)
	created, err := f.repo.Create(context.Background(), testutils.CreateTestRecord())
	require.NoError(t, err)

	resp := f.server.POSTForm("/delete/"+created.ID, url.Values{})
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.DashboardPath, resp.Header.Get("Location"))

	_, err = f.repo.FindByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	resp = f.server.POSTForm("/delete/"+created.ID, url.Values{})
	testutils.AssertErrorResponse(t, resp, http.StatusNotFound, "Record not found")
}

func TestDeleteAll_FlashesCount(t *testing.T) {
	f := setupWeb(t, nil)
	testutils.SeedRecords(t, f.repo, 4, time.Now())

	resp := f.server.POSTForm("/delete-all", url.Values{})
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	count, err := f.repo.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count)

	body := testutils.ReadBody(t, f.server.GET("/admin/dashboard"))
	assert.Contains(t, body, "Deleted 4 records")
	assert.Contains(t, body, "No records")

	// Flashes are shown once.
	body = testutils.ReadBody(t, f.server.GET("/admin/dashboard"))
	assert.NotContains(t, body, "Deleted 4 records")
}

func TestExportCSV(t *testing.T) {
	f := setupWeb(t, nil)
	ctx := context.Background()
	older := testutils.CreateTestRecordAt("203.0.113.1", time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	newer := testutils.CreateTestRecordAt("203.0.113.2", time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))
	_, err := f.repo.Create(ctx, older)
	require.NoError(t, err)
	_, err = f.repo.Create(ctx, newer)
	require.NoError(t, err)

	resp := f.server.GET("/export/csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "verification-data.csv")

	lines := strings.Split(strings.TrimSpace(testutils.ReadBody(t, resp)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Latitude,Longitude,IP,Image URL,Created At", lines[0])
	assert.Contains(t, lines[1], `"203.0.113.2"`)
	assert.Contains(t, lines[1], `"2026-01-02T08:00:00.000Z"`)
	assert.Contains(t, lines[2], `"203.0.113.1"`)
}

func TestHealth(t *testing.T) {
	f := setupWeb(t, nil)

	var body map[string]interface{}
	testutils.AssertJSONResponse(t, f.server.GET("/health"), http.StatusOK, &body)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Connected", body["mongo"])
	assert.Equal(t, "sqlite", body["store"])
	assert.NotEmpty(t, body["timestamp"])

	down := setupWeb(t, stubHealth{err: errors.New("connection refused")})
	testutils.AssertJSONResponse(t, down.server.GET("/health"), http.StatusOK, &body)
	assert.Equal(t, "Disconnected", body["mongo"])
}

func TestStaticAndMetrics(t *testing.T) {
	f := setupWeb(t, nil)

	resp := f.server.GET("/static/style.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body{}", testutils.ReadBody(t, resp))

	resp = f.server.GET("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, testutils.ReadBody(t, resp), "geocapture_http_requests_total")
}

func TestNotFound(t *testing.T) {
	f := setupWeb(t, nil)

	resp := f.server.GET("/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Contains(t, testutils.ReadBody(t, resp), "Cannot GET /nope")

	resp = f.server.GET("/save")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	resp.Body.Close()
}

func TestAdminActions_StoreFailure(t *testing.T) {
	f := setupWebWithRepo(t, testutils.FailingRepository{}, nil)

	tests := []struct {
		name    string
		resp    func() *http.Response
		message string
	}{
		{"Dashboard", func() *http.Response { return f.server.GET("/admin/dashboard") }, "Error loading dashboard"},
		{"DeleteRecord", func() *http.Response { return f.server.POSTForm("/delete/some-id", url.Values{}) }, "Error deleting record"},
		{"DeleteAll", func() *http.Response { return f.server.POSTForm("/delete-all", url.Values{}) }, "Error deleting all records"},
		{"ExportCSV", func() *http.Response { return f.server.GET("/export/csv") }, "Error exporting data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp()
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, tt.message, strings.TrimSpace(testutils.ReadBody(t, resp)))
		})
	}

	var body map[string]interface{}
	testutils.AssertJSONResponse(t, f.server.GET("/health"), http.StatusOK, &body)
	assert.Equal(t, "Disconnected", body["mongo"])
}
