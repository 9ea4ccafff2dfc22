package memory

import (
	"context"
	"errors"
	"testing"

	"homeportal/internal/core"
)

func TestStoreInsertAndList(t *testing.T) {
	s := New(core.AssetSnapshot{Date: core.NewDate(2024, 1, 31), AccountName: "Checking", Balance: 10, Currency: "USD"})
	err := s.InsertSnapshots(context.Background(), []core.AssetSnapshot{
		{Date: core.NewDate(2024, 2, 29), AccountName: "Checking", Balance: 12, Currency: "USD"},
		{Date: core.NewDate(2024, 3, 1), AccountName: "Savings", Balance: 1, Currency: "EUR"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	all, _ := s.ListSnapshots(context.Background(), core.DateRange{})
	if len(all) != 3 || all[0].Date.String() != "2024-03-01" || all[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", all)
	}

	from := core.NewDate(2024, 2, 1)
	before := core.NewDate(2024, 3, 1)
	feb, _ := s.ListSnapshots(context.Background(), core.DateRange{From: &from, Before: &before})
	if len(feb) != 1 || feb[0].Balance != 12 {
		t.Fatalf("unexpected february rows: %+v", feb)
	}
}

func TestStoreFailWithKeepsNothing(t *testing.T) {
	s := New()
	boom := errors.New("disk full")
	s.FailWith(boom)

	err := s.InsertSnapshots(context.Background(), []core.AssetSnapshot{{Date: core.NewDate(2024, 1, 1), AccountName: "A", Currency: "USD"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no rows, got %d", s.Len())
	}

	s.FailWith(nil)
	if err := s.InsertSnapshots(context.Background(), []core.AssetSnapshot{{Date: core.NewDate(2024, 1, 1), AccountName: "A", Currency: "USD"}}); err != nil {
		t.Fatalf("insert after reset: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", s.Len())
	}
}
