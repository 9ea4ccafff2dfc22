package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"homeportal/internal/core"
)

var (
	ErrPersistence     = errors.New("persist asset snapshots")
	ErrInvalidEncoding = errors.New("upload is not valid UTF-8 text")
	ErrInvalidFile     = errors.New("upload is not a readable CSV document")
)

// SnapshotWriter persists a batch of snapshots atomically: all rows or none.
type SnapshotWriter interface {
	InsertSnapshots(ctx context.Context, snapshots []core.AssetSnapshot) error
}

// Importer runs the row parser over an uploaded file and commits accepted rows once.
type Importer struct {
	store  SnapshotWriter
	logger *slog.Logger
}

func NewImporter(store SnapshotWriter, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// Import processes every row of r in file order. Rejected rows are reported
// in the outcome; only a failed batch commit, unreadable input or invalid
// encoding fails the whole operation.
func (im *Importer) Import(ctx context.Context, r io.Reader) (core.ImportOutcome, error) {
	outcome := core.ImportOutcome{Failed: []core.RowError{}}

	content, err := io.ReadAll(r)
	if err != nil {
		return core.ImportOutcome{}, fmt.Errorf("read upload: %w", err)
	}
	if !utf8.Valid(content) {
		return core.ImportOutcome{}, ErrInvalidEncoding
	}

	rows, err := NewRowReader(bytes.NewReader(content))
	if errors.Is(err, io.EOF) {
		return outcome, nil
	}
	if err != nil {
		return core.ImportOutcome{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	var staged []core.AssetSnapshot
	for res := range rows.All() {
		if res.Err != nil {
			outcome.Failed = append(outcome.Failed, core.RowError{
				LineNumber: res.Line,
				Error:      res.Err.Error(),
			})
			continue
		}
		staged = append(staged, res.Snapshot)
	}

	if len(staged) > 0 {
		if err := im.store.InsertSnapshots(ctx, staged); err != nil {
			im.logger.ErrorContext(ctx, "Asset import commit failed",
				"staged", len(staged),
				"failed_rows", len(outcome.Failed),
				"error", err)
			return core.ImportOutcome{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	outcome.Imported = len(staged)

	im.logger.InfoContext(ctx, "Asset import completed",
		"imported", outcome.Imported,
		"failed_rows", len(outcome.Failed))

	return outcome, nil
}
