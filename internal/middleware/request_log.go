package middleware

import (
	"net/http"
	"time"

	"vet-clinic/internal/platform/logger"
)

type loggedWriter struct {
	http.ResponseWriter
	status int
}

func (lw *loggedWriter) WriteHeader(code int) {
	lw.status = code
	lw.ResponseWriter.WriteHeader(code)
}

// RequestLog loguea método, path, status y duración por request.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggedWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			log.Info("http request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      lw.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}
