package http

import (
	"errors"
	"net/http"

	"homeportal/internal/assets"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

// errorStatus maps a handler error onto a status code and detail message.
// resource names the entity in 404 details, e.g. "Link not found".
func errorStatus(err error, resource string) (int, string) {
	var reqErr *requestError
	var valErr *core.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.detail
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "Upload too large"
	case errors.Is(err, assets.ErrInvalidMonth),
		errors.Is(err, assets.ErrInvalidEncoding),
		errors.Is(err, assets.ErrInvalidFile):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, valErr.Error()
	case errors.Is(err, core.ErrNotFound):
		if resource == "" {
			resource = "Resource"
		}
		return http.StatusNotFound, resource + " not found"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "Conflict"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeError logs server faults and writes the {"detail": ...} body.
func writeError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	status, detail := errorStatus(err, resource)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err.Error())
	}
	ErrorResponse(status, detail).Write(w)
}
