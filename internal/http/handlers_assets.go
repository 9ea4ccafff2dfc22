package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"homeportal/internal/core"
)

// acceptedUploadTypes are the part content types browsers send for CSV files.
var acceptedUploadTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
}

type summaryResponse struct {
	Items []core.SummaryBucket `json:"items"`
}

// handleImportAssets accepts a multipart upload in field "file" and reports
// per-row failures alongside the imported count.
func (s *Server) handleImportAssets(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.config.MaxUploadBytes {
		writeError(w, r, &requestError{status: http.StatusRequestEntityTooLarge, detail: "Upload too large"}, "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, err, "")
			return
		}
		writeError(w, r, &requestError{status: http.StatusUnprocessableEntity, detail: "Missing upload field \"file\""}, "")
		return
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !acceptedUploadTypes[strings.ToLower(mediaType)] {
		writeError(w, r, badRequest("Invalid content type"), "")
		return
	}

	outcome, err := s.deps.Assets.Import(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	Accepted(outcome).Write(w)
}

func (s *Server) handleAssetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.deps.Assets.Summary(r.Context(), strings.TrimSpace(q.Get("from_month")), strings.TrimSpace(q.Get("to_month")))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	OK(summaryResponse{Items: items}).Write(w)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Assets.Snapshots(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	OK(nonNil(items)).Write(w)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
