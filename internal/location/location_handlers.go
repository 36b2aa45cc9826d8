package location

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"geocapture/db"
	"geocapture/internal/ipresolver"
	"geocapture/internal/logging"
	"geocapture/internal/metrics"
	"geocapture/internal/validation"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

type LocationHandlers struct {
	Service  *LocationService
	Resolver *ipresolver.Resolver
}

func NewLocationHandlers(service *LocationService, resolver *ipresolver.Resolver) *LocationHandlers {
	return &LocationHandlers{Service: service, Resolver: resolver}
}

// Save handles POST /save.
func (h *LocationHandlers) Save(w http.ResponseWriter, r *http.Request) {
	var in CaptureInput
	if err := DecodeBody(r, &in, func(form func(string) string) {
		in = CaptureInput{Lat: Coordinate(form("lat")), Lon: Coordinate(form("lon")), ImageURL: form("imageUrl")}
	}); err != nil {
		metrics.CapturesTotal.WithLabelValues("invalid").Inc()
		RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if verr := validation.ValidateStruct(&in); verr != nil {
		metrics.CapturesTotal.WithLabelValues("invalid").Inc()
		RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Missing required fields",
			"fields":  verr.Fields,
		})
		return
	}

	// A client hanging up must not abort the lookup or the insert.
	ctx := context.WithoutCancel(r.Context())
	ip := h.Resolver.Resolve(ctx, r)

	record, err := h.Service.Create(ctx, in, ip)
	if err != nil {
		metrics.CapturesTotal.WithLabelValues("error").Inc()
		logging.Error().Err(err).Msg("Save error")
		RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	metrics.CapturesTotal.WithLabelValues("saved").Inc()
	logging.Info().
		Str("id", record.ID).
		Str("ip", record.IP).
		Str("lat", record.Lat).
		Str("lon", record.Lon).
		Msg("New verification saved")

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      record.ID,
		"message": "Verification data saved successfully",
	})
}

// GetRecord handles GET /api/record/{id}.
func (h *LocationHandlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.Service.FindByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		RespondJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Record not found"})
		return
	}
	if err != nil {
		RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": record})
}

// Stats handles GET /api/stats.
func (h *LocationHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Stats error")
		RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": stats})
}

// RespondJSON writes v as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// DecodeBody decodes a JSON body into dst. Any other content type is parsed
// as a form and handed to fromForm. An empty JSON body leaves dst untouched.
func DecodeBody(r *http.Request, dst interface{}, fromForm func(form func(string) string)) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
		if err == io.EOF {
			return nil
		}
		return err
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm(r.PostFormValue)
	return nil
}
