package http

import (
	"net/http"

	"homeportal/internal/core"
)

const (
	resourceContact = "Contact"
	resourceTodo    = "Todo"
)

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.deps.Contacts.List(r.Context())
	if err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	OK(nonNil(contacts)).Write(w)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in core.Contact
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	created, err := s.deps.Contacts.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	var patch core.ContactPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	updated, err := s.deps.Contacts.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	if err := s.deps.Contacts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, resourceContact)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.deps.Todos.List(r.Context())
	if err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	OK(nonNil(todos)).Write(w)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var in core.Todo
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	created, err := s.deps.Todos.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	Created(created).Write(w)
}

// handleUpdateTodo applies a partial update. Completing a repeating todo
// also schedules its next occurrence.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	var patch core.TodoPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	updated, err := s.deps.Todos.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	if err := s.deps.Todos.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, resourceTodo)
		return
	}
	NoContent().Write(w)
}
