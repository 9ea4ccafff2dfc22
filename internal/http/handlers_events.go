package http

import (
	"net/http"

	"homeportal/internal/core"
)

const resourceEvent = "Event"

// handleListEvents returns events overlapping the optional [start, end] window.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryTime(q, "start")
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	end, err := queryTime(q, "end")
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}

	events, err := s.deps.Events.List(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	OK(nonNil(events)).Write(w)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	event, err := s.deps.Events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	OK(event).Write(w)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in core.Event
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	created, err := s.deps.Events.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	var patch core.EventPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	updated, err := s.deps.Events.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	if err := s.deps.Events.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, resourceEvent)
		return
	}
	NoContent().Write(w)
}
