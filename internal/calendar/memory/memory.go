// Package memory is an in-process calendar mirror for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sort"
	"sync"

	"homeportal/internal/calendar"
	"homeportal/internal/core"
)

var _ calendar.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu     sync.Mutex
	events map[int64]core.Event
	err    error
}

func New() *Mirror {
	return &Mirror{events: make(map[int64]core.Event)}
}

// FailWith makes every following call return err. Pass nil to recover.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mirror) Upsert(_ context.Context, e core.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events[e.ID] = e
	return nil
}

func (m *Mirror) Delete(_ context.Context, eventID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.events, eventID)
	return nil
}

// Events returns the mirrored events ordered by ID.
func (m *Mirror) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
