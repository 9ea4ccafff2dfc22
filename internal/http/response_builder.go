// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses, giving every
// handler the same status, header and body handling.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	hasBody    bool
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	b.hasBody = true
	return b
}

// Write sends the built response. A response without body gets no
// Content-Type.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if !b.hasBody {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response body", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// errorBody is the shape of every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, detail string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Detail: detail})
}

// OK creates a 200 response carrying v.
func OK(v any) *JSONResponseBuilder {
	return NewJSONResponse().Body(v)
}

// Created creates a 201 response carrying v.
func Created(v any) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusCreated).Body(v)
}

// Accepted creates a 202 response carrying v.
func Accepted(v any) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusAccepted).Body(v)
}

// NoContent creates an empty 204 response.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}
