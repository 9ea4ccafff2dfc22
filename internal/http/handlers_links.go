package http

import (
	"net/http"

	"homeportal/internal/core"
)

const resourceLink = "Link"

type linkSearchResponse struct {
	Results []core.Link `json:"results"`
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.deps.Links.List(r.Context())
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	OK(nonNil(links)).Write(w)
}

func (s *Server) handleSearchLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	links, err := s.deps.Links.Search(r.Context(), q.Get("q"), queryTags(q))
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	OK(linkSearchResponse{Results: nonNil(links)}).Write(w)
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var in core.Link
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	created, err := s.deps.Links.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	var patch core.LinkPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	updated, err := s.deps.Links.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	if err := s.deps.Links.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	NoContent().Write(w)
}

// handleClickLink records a visit and returns the updated link.
func (s *Server) handleClickLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	link, err := s.deps.Links.Click(r.Context(), id)
	if err != nil {
		writeError(w, r, err, resourceLink)
		return
	}
	OK(link).Write(w)
}
