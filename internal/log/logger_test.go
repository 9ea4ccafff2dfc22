package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentAssets, Output: &buf})
	NewStructuredLogger(logger).LogImport(context.Background(), "balances.csv", 3, 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ComponentAssets, line[FieldComponent])
	assert.Equal(t, float64(3), line[FieldImported])
	assert.Equal(t, float64(1), line[FieldFailedRows])
	assert.Equal(t, "balances.csv", line[FieldFilename])
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Component: ComponentApp, Output: &buf}).WithComponent(ComponentWorker)
	logger.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ComponentWorker, line[FieldComponent])
	assert.Equal(t, ComponentWorker, logger.Component())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"component"`)))
}

func TestMiddlewareAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	var seen *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			seen.ErrorContext(r.Context(), "boom", FieldError, errors.New("x").Error())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line[FieldRequestID])
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
