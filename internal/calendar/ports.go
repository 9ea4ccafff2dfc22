// Package calendar defines the outbound port for mirroring household events
// to an external calendar.
package calendar

import (
	"context"

	"homeportal/internal/core"
)

// Mirror keeps an external copy of local events. Both operations are
// idempotent: upserting twice leaves one copy, deleting a missing copy succeeds.
type Mirror interface {
	Upsert(ctx context.Context, e core.Event) error
	Delete(ctx context.Context, eventID int64) error
}
