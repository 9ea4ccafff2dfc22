// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for reading request bodies, path values and
// query parameters into domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxJSONBody bounds every JSON request body. Uploads have their own limit.
const maxJSONBody = 1 << 20

// requestError is a client mistake detected before a service is called.
type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &requestError{status: http.StatusRequestEntityTooLarge, detail: "Request body too large"}
		case errors.Is(err, io.EOF):
			return &requestError{status: http.StatusUnprocessableEntity, detail: "Request body is required"}
		}
		return &requestError{status: http.StatusUnprocessableEntity, detail: "Invalid JSON body: " + err.Error()}
	}
	if dec.More() {
		return &requestError{status: http.StatusUnprocessableEntity, detail: "Invalid JSON body: trailing data"}
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &requestError{status: http.StatusUnprocessableEntity, detail: fmt.Sprintf("Invalid id %q", raw)}
	}
	return id, nil
}

// timeLayouts are tried in order for time query parameters. Values without an
// offset are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts ISO-8601 timestamps with or without offset, including a
// trailing Z, and bare dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

// queryTime returns nil when key is absent or empty.
func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, &requestError{status: http.StatusUnprocessableEntity, detail: key + ": " + err.Error()}
	}
	return &t, nil
}

// queryTags collects repeated tags parameters.
func queryTags(q url.Values) []string {
	var tags []string
	for _, v := range q["tags"] {
		if t := strings.TrimSpace(v); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
