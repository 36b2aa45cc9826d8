package middleware

import (
	"net/http"
	"runtime/debug"

	"geocapture/internal/logging"
)

// Recovery turns a handler panic into a plain 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Error().
				Interface("panic", rec).
				Str("path", r.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("Server error")
			http.Error(w, "Something broke! Please try again later.", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
