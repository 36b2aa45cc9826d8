package web

import (
	"net/http"

	"geocapture/internal/metrics"
	"geocapture/middleware"

	"github.com/gorilla/mux"
)

func (h *WebHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	// Logger outermost so recovered panics are logged and counted as 500s.
	r.Use(middleware.RequestLogger, middleware.Recovery)

	// Public capture
	r.HandleFunc("/", h.Track).Methods("GET")
	r.HandleFunc("/save", h.locations.Save).Methods("POST")

	// Admin pages
	r.HandleFunc("/admin", h.AdminLogin).Methods("GET")
	r.HandleFunc("/admin/login", h.Login).Methods("POST")
	r.HandleFunc("/admin/dashboard", h.Dashboard).Methods("GET")
	r.HandleFunc("/delete/{id}", h.DeleteRecord).Methods("POST")
	r.HandleFunc("/delete-all", h.DeleteAll).Methods("POST")
	r.HandleFunc("/export/csv", h.ExportCSV).Methods("GET")

	// JSON API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/record/{id}", h.locations.GetRecord).Methods("GET")
	api.HandleFunc("/stats", h.locations.Stats).Methods("GET")

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(h.config.StaticDir))))

	// mux skips middleware for these, so they are wrapped here.
	r.NotFoundHandler = middleware.RequestLogger(http.HandlerFunc(h.NotFound))
	r.MethodNotAllowedHandler = middleware.RequestLogger(http.HandlerFunc(h.MethodNotAllowed))

	return r
}
