package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.deps.DB == nil {
		checks["database"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.deps.DB.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.deps.Assets != nil {
		checks["summary_cache"] = map[string]any{
			"entries": s.deps.Assets.Stats().Cache.Size,
			"status":  "ok",
		}
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.deps.Limiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().
		Status(httpStatus).
		Body(map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides request, import and cache counters in the
// Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.trace.GetMetrics()
	notifierStats := s.deps.Notifier.Stats()
	var imports, importedRows, failedRows, cacheHits, cacheMisses int64
	var cacheEntries int
	if s.deps.Assets != nil {
		stats := s.deps.Assets.Stats()
		imports, importedRows, failedRows = stats.Imports, stats.ImportedRows, stats.FailedRows
		cacheHits, cacheMisses, cacheEntries = stats.Cache.Hits, stats.Cache.Misses, stats.Cache.Size
	}

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_responses_errors_total HTTP responses with an error status\n")
	fmt.Fprintf(w, "# TYPE http_responses_errors_total counter\n")
	fmt.Fprintf(w, "http_responses_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_responses_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP asset_imports_total Completed asset imports\n")
	fmt.Fprintf(w, "# TYPE asset_imports_total counter\n")
	fmt.Fprintf(w, "asset_imports_total %d\n\n", imports)

	fmt.Fprintf(w, "# HELP asset_import_rows_total Asset rows processed by outcome\n")
	fmt.Fprintf(w, "# TYPE asset_import_rows_total counter\n")
	fmt.Fprintf(w, "asset_import_rows_total{outcome=\"imported\"} %d\n", importedRows)
	fmt.Fprintf(w, "asset_import_rows_total{outcome=\"failed\"} %d\n\n", failedRows)

	fmt.Fprintf(w, "# HELP cache_hits_total Total summary cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total summary cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP cache_entries Current summary cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries %d\n\n", cacheEntries)

	fmt.Fprintf(w, "# HELP notifications_total Change notifications by outcome\n")
	fmt.Fprintf(w, "# TYPE notifications_total counter\n")
	fmt.Fprintf(w, "notifications_total{outcome=\"published\"} %d\n", notifierStats.Published)
	fmt.Fprintf(w, "notifications_total{outcome=\"dropped\"} %d\n\n", notifierStats.Dropped)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.deps.Limiter.Limited())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.deps.Limiter.ActiveClients())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.deps.Detector.Suspicious())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
