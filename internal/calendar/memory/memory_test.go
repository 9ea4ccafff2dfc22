package memory

import (
	"context"
	"errors"
	"testing"

	"homeportal/internal/core"
)

func TestMirrorUpsertIsIdempotent(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.Upsert(ctx, core.Event{ID: 2, Title: "Dinner"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := m.Upsert(ctx, core.Event{ID: 2, Title: "Late dinner"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := m.Upsert(ctx, core.Event{ID: 1, Title: "Breakfast"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got := m.Events()
	if len(got) != 2 {
		t.Fatalf("Events() len = %d, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].Title != "Late dinner" {
		t.Errorf("Events() = %+v", got)
	}
}

func TestMirrorDeleteMissingSucceeds(t *testing.T) {
	m := New()
	if err := m.Delete(context.Background(), 99); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestMirrorFailWith(t *testing.T) {
	m := New()
	boom := errors.New("quota exceeded")
	m.FailWith(boom)

	if err := m.Upsert(context.Background(), core.Event{ID: 1}); !errors.Is(err, boom) {
		t.Errorf("Upsert() error = %v, want %v", err, boom)
	}
	m.FailWith(nil)
	if err := m.Delete(context.Background(), 1); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
