package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"geocapture/db"
	"geocapture/internal/auth"
	"geocapture/internal/config"
	"geocapture/internal/location"
	"geocapture/internal/logging"
	"geocapture/internal/metrics"
	"geocapture/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName        = "geocapture-session"
	healthCheckTimeout = 2 * time.Second
	isoMillis          = "2006-01-02T15:04:05.000Z"
)

// HealthChecker reports whether the record store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type WebHandler struct {
	locations     *location.LocationHandlers
	authenticator auth.Authenticator
	health        HealthChecker
	backend       string
	templates     *template.Template
	sessionStore  *sessions.CookieStore
	config        *config.Config
}

// TrackPageData feeds the public capture page.
type TrackPageData struct {
	UploadURL    string
	UploadPreset string
}

type LoginPageData struct {
	Error string
}

type DashboardData struct {
	Records      []*models.LocationRecord
	CurrentPage  int
	TotalPages   int
	TotalRecords int64
	Limit        int
	IP           string
	Flashes      []string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewWebHandler(
	locations *location.LocationHandlers,
	authenticator auth.Authenticator,
	health HealthChecker,
	backend string,
	cfg *config.Config,
) *WebHandler {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			return t.UTC().Format("2006-01-02 15:04:05")
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	return &WebHandler{
		locations:     locations,
		authenticator: authenticator,
		health:        health,
		backend:       backend,
		templates:     tmpl,
		sessionStore:  store,
		config:        cfg,
	}
}

// Track serves the public capture page.
func (h *WebHandler) Track(w http.ResponseWriter, r *http.Request) {
	h.render(w, "track.html", TrackPageData{
		UploadURL:    h.config.UploadURL,
		UploadPreset: h.config.UploadPreset,
	})
}

func (h *WebHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", LoginPageData{Error: r.URL.Query().Get("error")})
}

// Login checks the submitted credentials. Nothing is issued on success; the
// client is told where to go.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := location.DecodeBody(r, &req, func(form func(string) string) {
		req = loginRequest{Username: form("username"), Password: form("password")}
	}); err != nil {
		location.RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Login failed",
		})
		return
	}

	if !h.authenticator.Authenticate(r.Context(), req.Username, req.Password) {
		logging.Warn().Str("username", req.Username).Msg("Failed admin login")
		location.RespondJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Invalid credentials",
		})
		return
	}

	location.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"redirect": auth.DashboardPath,
	})
}

func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := location.ParsePagination(q)

	result, err := h.locations.Service.List(r.Context(), page, limit, q.Get("ip"))
	if err != nil {
		logging.Error().Err(err).Msg("Dashboard error")
		http.Error(w, "Error loading dashboard", http.StatusInternalServerError)
		return
	}

	h.render(w, "index.html", DashboardData{
		Records:      result.Records,
		CurrentPage:  result.CurrentPage,
		TotalPages:   result.TotalPages,
		TotalRecords: result.TotalRecords,
		Limit:        result.Limit,
		IP:           result.IP,
		Flashes:      h.popFlashes(w, r),
	})
}

func (h *WebHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.locations.Service.Delete(context.WithoutCancel(r.Context()), id)
	if errors.Is(err, db.ErrNotFound) {
		location.RespondJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Record not found"})
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("id", id).Msg("Delete error")
		http.Error(w, "Error deleting record", http.StatusInternalServerError)
		return
	}

	metrics.RecordsDeletedTotal.Inc()
	logging.Info().Str("id", id).Msg("Deleted record")
	h.addFlash(w, r, "Record deleted")
	http.Redirect(w, r, auth.DashboardPath, http.StatusFound)
}

func (h *WebHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	removed, err := h.locations.Service.DeleteAll(context.WithoutCancel(r.Context()))
	if err != nil {
		logging.Error().Err(err).Msg("Delete all error")
		http.Error(w, "Error deleting all records", http.StatusInternalServerError)
		return
	}

	metrics.RecordsDeletedTotal.Add(float64(removed))
	logging.Info().Int64("count", removed).Msg("Deleted all records")
	h.addFlash(w, r, fmt.Sprintf("Deleted %d records", removed))
	http.Redirect(w, r, auth.DashboardPath, http.StatusFound)
}

// ExportCSV sends every record as a CSV attachment. The body is built in
// memory first so a failure can still produce a 500.
func (h *WebHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.locations.Service.FindAll(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Export error")
		http.Error(w, "Error exporting data", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := location.WriteCSV(&buf, records); err != nil {
		logging.Error().Err(err).Msg("Export error")
		http.Error(w, "Error exporting data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, location.ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Health always answers 200; the store state is reported in the body.
func (h *WebHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	state := "Connected"
	if err := h.health.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check: store unreachable")
		state = "Disconnected"
	}

	location.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(isoMillis),
		"mongo":     state,
		"store":     h.backend,
	})
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), http.StatusNotFound)
}

func (h *WebHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
}

func (h *WebHandler) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Error().Err(err).Str("template", name).Msg("Template execution error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *WebHandler) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	// A stale or foreign cookie yields a fresh session alongside the error.
	session, _ := h.sessionStore.Get(r, sessionName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		logging.Warn().Err(err).Msg("Failed to save flash message")
	}
}

func (h *WebHandler) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := h.sessionStore.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		logging.Warn().Err(err).Msg("Failed to clear flash messages")
	}

	flashes := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			flashes = append(flashes, s)
		}
	}
	return flashes
}
