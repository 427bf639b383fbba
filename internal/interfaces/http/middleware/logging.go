package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/metrics"
)

// slowThreshold marks requests worth a warning instead of debug noise.
const slowThreshold = 3 * time.Second

var skipPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// wrappedResponseWriter captures the status code and bytes written.
type wrappedResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *wrappedResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *wrappedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// LoggingMiddleware logs each request and feeds the HTTP duration histogram.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewLoggingMiddleware(log logging.Logger, m *metrics.Metrics) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log, metrics: m}
}

func (lm *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ww := &wrappedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		// Use the chi route pattern, not the raw path, so metrics cardinality
		// stays bounded.
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		lm.metrics.ObserveHTTP(route, r.Method, strconv.Itoa(ww.statusCode), elapsed)

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.statusCode),
			logging.Int64("bytes", ww.bytesWritten),
			logging.Duration("elapsed", elapsed),
		}
		switch {
		case elapsed > slowThreshold:
			lm.logger.Warn("slow request", fields...)
		case ww.statusCode >= 500:
			lm.logger.Error("request failed", fields...)
		default:
			lm.logger.Info("request", fields...)
		}
	})
}
