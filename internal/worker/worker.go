// Package worker consumes change messages: audit messages become audit log
// rows and calendar messages update the external calendar copy of local events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"homeportal/internal/amqp"
	"homeportal/internal/calendar"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

type AuditWriter interface {
	InsertAudit(ctx context.Context, e core.AuditEntry) (int64, error)
}

type EventReader interface {
	GetEvent(ctx context.Context, id int64) (core.Event, error)
}

type Worker struct {
	audit  AuditWriter
	events EventReader
	mirror calendar.Mirror
	logger *applog.Logger

	handled atomic.Int64
	failed  atomic.Int64
}

// New builds a worker. A nil mirror acknowledges calendar messages without
// doing anything.
func New(audit AuditWriter, events EventReader, mirror calendar.Mirror, logger *applog.Logger) *Worker {
	return &Worker{
		audit:  audit,
		events: events,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Handle is the amqp.Handler for the household queue. A returned error
// requeues the message unless it wraps amqp.ErrPermanent.
func (w *Worker) Handle(ctx context.Context, env *amqp.Envelope) error {
	var err error
	switch env.Type {
	case amqp.TypeAudit:
		err = w.handleAudit(ctx, env)
	case amqp.TypeCalendarUpsert:
		err = w.handleCalendar(ctx, env, true)
	case amqp.TypeCalendarDelete:
		err = w.handleCalendar(ctx, env, false)
	default:
		err = amqp.Permanent(fmt.Errorf("%w: %q", amqp.ErrUnknownMessageType, env.Type))
	}

	if err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Message handling failed",
			"type", env.Type,
			applog.FieldError, err)
		return err
	}
	w.handled.Add(1)
	return nil
}

func (w *Worker) handleAudit(ctx context.Context, env *amqp.Envelope) error {
	var msg amqp.AuditMessage
	if err := env.Decode(&msg); err != nil {
		return amqp.Permanent(err)
	}
	at := msg.At
	if at.IsZero() {
		at = env.Timestamp
	}

	entry := core.AuditEntry{
		UserID:   msg.UserID,
		Action:   msg.Action,
		Entity:   msg.Entity,
		EntityID: msg.EntityID,
		Diff:     msg.Diff,
		At:       at,
	}
	id, err := w.audit.InsertAudit(ctx, entry)
	if errors.Is(err, core.ErrConflict) && entry.UserID != nil {
		// The acting user was deleted after the message was sent.
		w.logger.WarnContext(ctx, "Audit user no longer exists, recording without user",
			"user_id", *entry.UserID,
			applog.FieldEntity, msg.Entity,
			applog.FieldEntityID, msg.EntityID)
		entry.UserID = nil
		id, err = w.audit.InsertAudit(ctx, entry)
	}
	if errors.Is(err, core.ErrConflict) {
		return amqp.Permanent(fmt.Errorf("write audit entry: %w", err))
	}
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	w.logger.DebugContext(ctx, "Audit entry written",
		"audit_id", id,
		applog.FieldOperation, msg.Action,
		applog.FieldEntity, msg.Entity,
		applog.FieldEntityID, msg.EntityID)
	return nil
}

func (w *Worker) handleCalendar(ctx context.Context, env *amqp.Envelope, upsert bool) error {
	var msg amqp.CalendarMessage
	if err := env.Decode(&msg); err != nil {
		return amqp.Permanent(err)
	}
	if w.mirror == nil {
		w.logger.DebugContext(ctx, "Calendar mirror not configured, skipping", applog.FieldEntityID, msg.EventID)
		return nil
	}

	if !upsert {
		if err := w.mirror.Delete(ctx, msg.EventID); err != nil {
			return fmt.Errorf("delete mirrored event: %w", err)
		}
		w.logger.InfoContext(ctx, "Mirrored event deleted", applog.FieldEntityID, msg.EventID)
		return nil
	}

	// The event may have changed or disappeared since the message was sent;
	// mirror what is stored now.
	e, err := w.events.GetEvent(ctx, msg.EventID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.InfoContext(ctx, "Event gone before mirroring, skipping", applog.FieldEntityID, msg.EventID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event %d: %w", msg.EventID, err)
	}
	if e.Source != core.SourceLocal {
		return nil
	}

	if err := w.mirror.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert mirrored event: %w", err)
	}
	w.logger.InfoContext(ctx, "Event mirrored",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldEntityID, strconv.FormatInt(e.ID, 10))
	return nil
}

type Stats struct {
	Handled int64
	Failed  int64
}

func (w *Worker) Stats() Stats {
	return Stats{Handled: w.handled.Load(), Failed: w.failed.Load()}
}
