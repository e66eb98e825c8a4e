package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/security"
)

// CorrelationHeader carries the correlation ID in and out of the service.
const CorrelationHeader = "X-Correlation-ID"

// responseWriter captures status code and bytes written. It keeps Flush
// reachable so PDF streams are not buffered.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger logs every request once it completes and stores the
// correlation ID in the request context. An inbound X-Correlation-ID wins
// over the chi request ID; the chosen value is echoed in the response.
// Log level follows the status: 5xx error, 4xx warn, otherwise info.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := strings.TrimSpace(r.Header.Get(CorrelationHeader))
			if correlationID == "" {
				correlationID = chimw.GetReqID(r.Context())
			}
			ctx, correlationID := ctxutil.EnsureCorrelationID(ctxutil.WithCorrelationID(r.Context(), correlationID))
			w.Header().Set(CorrelationHeader, correlationID)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := []any{
				"correlation_id", correlationID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", rw.statusCode,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / 1e6,
				"bytes", rw.bytesWritten,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "url", security.SanitizeURL(r.URL.String()))
			}
			if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
				attrs = append(attrs, "user_agent", userAgent)
			}

			switch {
			case rw.statusCode >= 500:
				log.Error("HTTP request", attrs...)
			case rw.statusCode >= 400:
				log.Warn("HTTP request", attrs...)
			default:
				log.Info("HTTP request", attrs...)
			}
		})
	}
}
