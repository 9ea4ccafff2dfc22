package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"homeportal/internal/core"
)

var ErrInvalidMonth = errors.New("invalid month")

// SnapshotReader returns stored snapshots whose date falls in the range.
type SnapshotReader interface {
	ListSnapshots(ctx context.Context, r core.DateRange) ([]core.AssetSnapshot, error)
}

// ParseMonth parses a YYYY-MM key into the first day of that month.
func ParseMonth(s string) (core.Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q is not a YYYY-MM month", ErrInvalidMonth, s)
	}
	return core.Date{Time: t}, nil
}

// MonthRange builds the date filter for an optional inclusive month span.
// The upper bound is the first day of the month after toMonth.
func MonthRange(fromMonth, toMonth string) (core.DateRange, error) {
	var r core.DateRange
	if fromMonth != "" {
		from, err := ParseMonth(fromMonth)
		if err != nil {
			return core.DateRange{}, err
		}
		r.From = &from
	}
	if toMonth != "" {
		to, err := ParseMonth(toMonth)
		if err != nil {
			return core.DateRange{}, err
		}
		before := core.Date{Time: to.AddDate(0, 1, 0)}
		r.Before = &before
	}
	return r, nil
}

// Aggregate groups snapshots by month and sums balances per currency.
// Buckets are sorted by month ascending.
func Aggregate(snapshots []core.AssetSnapshot) []core.SummaryBucket {
	byMonth := make(map[string]map[string]float64)
	for _, s := range snapshots {
		key := s.Date.MonthKey()
		totals, ok := byMonth[key]
		if !ok {
			totals = make(map[string]float64)
			byMonth[key] = totals
		}
		totals[s.Currency] += s.Balance
	}

	buckets := make([]core.SummaryBucket, 0, len(byMonth))
	for month, totals := range byMonth {
		buckets = append(buckets, core.SummaryBucket{Month: month, Totals: totals})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets
}

// Summarizer answers month-bucketed summary queries against a SnapshotReader.
type Summarizer struct {
	store SnapshotReader
}

func NewSummarizer(store SnapshotReader) *Summarizer {
	return &Summarizer{store: store}
}

// Summarize validates the month bounds before touching the store.
func (s *Summarizer) Summarize(ctx context.Context, fromMonth, toMonth string) ([]core.SummaryBucket, error) {
	r, err := MonthRange(fromMonth, toMonth)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.store.ListSnapshots(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return Aggregate(snapshots), nil
}

// SnapshotStore is the persistence collaborator for both import and summary.
type SnapshotStore interface {
	SnapshotWriter
	SnapshotReader
}
