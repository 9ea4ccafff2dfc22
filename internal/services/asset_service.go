package services

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"homeportal/internal/assets"
	"homeportal/internal/cache"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

// AssetService wires the import and summary pipelines to storage, the
// summary cache and change notifications.
type AssetService struct {
	store      assets.SnapshotStore
	importer   *assets.Importer
	summarizer *assets.Summarizer
	summaries  *cache.Loader[[]core.SummaryBucket]
	notifier   *Notifier
	events     *applog.StructuredLogger

	imports      atomic.Int64
	importedRows atomic.Int64
	failedRows   atomic.Int64
}

// NewAssetService builds the service. A nil summaries cache disables caching.
func NewAssetService(store assets.SnapshotStore, summaries cache.Cache[[]core.SummaryBucket], notifier *Notifier, logger *applog.Logger) *AssetService {
	logger = logger.WithComponent(applog.ComponentAssets)
	s := &AssetService{
		store:      store,
		importer:   assets.NewImporter(store, logger.Slog()),
		summarizer: assets.NewSummarizer(store),
		notifier:   notifier,
		events:     applog.NewStructuredLogger(logger),
	}
	if summaries != nil {
		s.summaries = cache.NewLoader(summaries)
	}
	return s
}

// Import stores every valid row of the CSV document in r. Cached summaries
// are dropped once new rows are committed.
func (s *AssetService) Import(ctx context.Context, filename string, r io.Reader) (core.ImportOutcome, error) {
	outcome, err := s.importer.Import(ctx, r)
	if err != nil {
		s.events.LogError(ctx, "Asset import failed", err, applog.OpImport,
			applog.NewFields().WithEntity(EntityAssetSnapshot, filename))
		return core.ImportOutcome{}, err
	}

	s.imports.Add(1)
	s.importedRows.Add(int64(outcome.Imported))
	s.failedRows.Add(int64(len(outcome.Failed)))

	if outcome.Imported > 0 && s.summaries != nil {
		s.summaries.Invalidate()
	}
	s.events.LogImport(ctx, filename, outcome.Imported, len(outcome.Failed))
	s.notifier.audit(ctx, "import", EntityAssetSnapshot, filename, map[string]any{
		"imported": outcome.Imported,
		"failed":   len(outcome.Failed),
	})
	return outcome, nil
}

// Summary returns month buckets for the optional inclusive month span.
// Month keys are validated before the cache or the store is consulted.
func (s *AssetService) Summary(ctx context.Context, fromMonth, toMonth string) ([]core.SummaryBucket, error) {
	if _, err := assets.MonthRange(fromMonth, toMonth); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]core.SummaryBucket, error) {
		return s.summarizer.Summarize(ctx, fromMonth, toMonth)
	}
	if s.summaries == nil {
		return load(ctx)
	}
	return s.summaries.Get(ctx, fromMonth+"|"+toMonth, load)
}

// Snapshots lists every stored snapshot, newest date first.
func (s *AssetService) Snapshots(ctx context.Context) ([]core.AssetSnapshot, error) {
	items, err := s.store.ListSnapshots(ctx, core.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return items, nil
}

type AssetStats struct {
	Imports      int64
	ImportedRows int64
	FailedRows   int64
	Cache        cache.Stats
}

func (s *AssetService) Stats() AssetStats {
	stats := AssetStats{
		Imports:      s.imports.Load(),
		ImportedRows: s.importedRows.Load(),
		FailedRows:   s.failedRows.Load(),
	}
	if s.summaries != nil {
		stats.Cache = s.summaries.Stats()
	}
	return stats
}
