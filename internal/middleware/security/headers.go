package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig lists the response headers set on every API response.
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginResource string
}

// DefaultHeadersConfig suits a JSON API: nothing may be framed or executed.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginResource:   "cross-origin",
	}
}

func HeadersMiddleware(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applyHeaders(w.Header(), r, config)
			next.ServeHTTP(w, r)
		})
	}
}

func applyHeaders(headers http.Header, r *http.Request, config HeadersConfig) {
	set := func(name, value string) {
		if value != "" {
			headers.Set(name, value)
		}
	}
	set("Content-Security-Policy", config.CSP)
	set("X-Frame-Options", config.XFrameOptions)
	set("X-Content-Type-Options", config.XContentTypeOptions)
	set("Referrer-Policy", config.ReferrerPolicy)
	set("Permissions-Policy", config.PermissionsPolicy)
	set("Cross-Origin-Resource-Policy", config.CrossOriginResource)

	// HSTS only means something over TLS.
	if r.TLS != nil && config.HSTSMaxAge > 0 {
		value := fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			value += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", value)
	}
}

// CORSConfig controls cross-origin access. An empty AllowedOrigins allows any origin.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         600,
	}
}

// CORSMiddleware answers preflight requests itself and annotates the rest.
func CORSMiddleware(config CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !originAllowed(config.AllowedOrigins, origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", fmt.Sprint(config.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
