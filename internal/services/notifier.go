package services

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"homeportal/internal/amqp"
	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

// Entity names used in audit messages.
const (
	EntityAssetSnapshot = "asset_snapshot"
	EntityLink          = "link"
	EntityContact       = "contact"
	EntityTodo          = "todo"
	EntityEvent         = "event"
)

// Notifier publishes change messages after successful mutations. Publishing
// is best effort: failures are logged and counted, never returned.
type Notifier struct {
	publisher amqp.Publisher
	logger    *applog.Logger
	now       func() time.Time

	published atomic.Int64
	dropped   atomic.Int64
}

// NewNotifier accepts a nil publisher, in which case every message is skipped.
func NewNotifier(publisher amqp.Publisher, logger *applog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAMQP),
		now:       time.Now,
	}
}

// Audit announces a mutation of entity performed by the user in ctx.
func (n *Notifier) Audit(ctx context.Context, action, entity string, entityID int64, diff map[string]any) {
	n.audit(ctx, action, entity, strconv.FormatInt(entityID, 10), diff)
}

func (n *Notifier) audit(ctx context.Context, action, entity, entityID string, diff map[string]any) {
	if n == nil {
		return
	}
	msg := amqp.AuditMessage{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Diff:     diff,
		At:       n.now().UTC(),
	}
	if u, ok := core.UserFromContext(ctx); ok && u.ID != 0 {
		id := u.ID
		msg.UserID = &id
	}
	n.publish(ctx, amqp.TypeAudit, msg)
}

// EventChanged asks the worker to create or refresh the calendar copy.
func (n *Notifier) EventChanged(ctx context.Context, eventID int64) {
	if n == nil {
		return
	}
	n.publish(ctx, amqp.TypeCalendarUpsert, amqp.CalendarMessage{EventID: eventID})
}

// EventRemoved asks the worker to drop the calendar copy.
func (n *Notifier) EventRemoved(ctx context.Context, eventID int64) {
	if n == nil {
		return
	}
	n.publish(ctx, amqp.TypeCalendarDelete, amqp.CalendarMessage{EventID: eventID})
}

func (n *Notifier) publish(ctx context.Context, t amqp.MessageType, payload any) {
	if n.publisher == nil {
		n.logger.WarnContext(ctx, "AMQP client not available, skipping message", "type", t)
		return
	}

	env, err := amqp.NewEnvelope(t, payload)
	if err == nil {
		err = n.publisher.Publish(ctx, env)
	}
	if err != nil {
		n.dropped.Add(1)
		n.logger.ErrorContext(ctx, "Failed to publish message",
			"type", t,
			applog.FieldError, err)
		return
	}
	n.published.Add(1)
}

type NotifierStats struct {
	Published int64
	Dropped   int64
}

func (n *Notifier) Stats() NotifierStats {
	if n == nil {
		return NotifierStats{}
	}
	return NotifierStats{Published: n.published.Load(), Dropped: n.dropped.Load()}
}

// diffOf flattens v to a JSON object, dropping null members. Patches become
// the list of fields a request actually set.
func diffOf(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	for k, val := range m {
		if val == nil {
			delete(m, k)
		}
	}
	return m
}
