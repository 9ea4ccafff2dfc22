// Package memory holds an in-process asset snapshot store used by tests and
// the CLI dry-run mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"homeportal/internal/core"
)

type Store struct {
	mu      sync.Mutex
	items   []core.AssetSnapshot
	nextID  int64
	failErr error
}

func New(seed ...core.AssetSnapshot) *Store {
	s := &Store{}
	_ = s.InsertSnapshots(context.Background(), seed)
	return s
}

// FailWith makes every following InsertSnapshots call return err without
// storing anything. Pass nil to restore normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// InsertSnapshots stores the batch atomically and assigns ids.
func (s *Store) InsertSnapshots(_ context.Context, snapshots []core.AssetSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for _, snap := range snapshots {
		s.nextID++
		snap.ID = s.nextID
		s.items = append(s.items, snap)
	}
	return nil
}

// ListSnapshots returns matching snapshots, newest date first.
func (s *Store) ListSnapshots(_ context.Context, r core.DateRange) ([]core.AssetSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AssetSnapshot, 0, len(s.items))
	for _, snap := range s.items {
		if r.Contains(snap.Date) {
			out = append(out, snap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
