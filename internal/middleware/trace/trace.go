// Package trace assigns request IDs, logs request start and end, and keeps
// the request counters exposed on /metrics.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "homeportal/internal/log"
)

type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger

	totalRequests int64
	clientErrors  int64
	serverErrors  int64
	totalMicros   int64
}

// Metrics is a point-in-time copy of the request counters.
type Metrics struct {
	TotalRequests       int64
	ClientErrors        int64
	ServerErrors        int64
	AverageResponseTime int64 // microseconds
}

func NewMiddleware(extractIP func(*http.Request) string, logger *applog.Logger) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentTrace)),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := incomingRequestID(r)
		w.Header().Set(HeaderRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		m.logger.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.totalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.AddInt64(&m.totalMicros, duration.Microseconds())
		switch {
		case rw.statusCode >= 500:
			atomic.AddInt64(&m.serverErrors, 1)
		case rw.statusCode >= 400:
			atomic.AddInt64(&m.clientErrors, 1)
		}

		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// incomingRequestID keeps a caller supplied UUID so traces can span services.
func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return GenerateRequestID()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID is GetRequestID for callers holding the request.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.totalRequests)
	metrics := Metrics{
		TotalRequests: total,
		ClientErrors:  atomic.LoadInt64(&m.clientErrors),
		ServerErrors:  atomic.LoadInt64(&m.serverErrors),
	}
	if total > 0 {
		metrics.AverageResponseTime = atomic.LoadInt64(&m.totalMicros) / total
	}
	return metrics
}
