package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MessageType string

const (
	TypeAudit          MessageType = "audit"
	TypeCalendarUpsert MessageType = "calendar.upsert"
	TypeCalendarDelete MessageType = "calendar.delete"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// ErrPermanent marks handler failures that will not succeed on redelivery.
// Such messages are dropped instead of requeued.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err with ErrPermanent.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Envelope is the wire format of every message on the queue. The payload
// shape depends on Type.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// AuditMessage describes one successful mutation.
type AuditMessage struct {
	UserID   *int64         `json:"user_id,omitempty"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Diff     map[string]any `json:"diff,omitempty"`
	At       time.Time      `json:"at"`
}

// CalendarMessage asks the worker to mirror one local event. The worker
// reloads the event from the database, so only the ID travels.
type CalendarMessage struct {
	EventID int64 `json:"event_id"`
}

func NewEnvelope(t MessageType, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Envelope{Type: t, Timestamp: time.Now().UTC(), Payload: body}, nil
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EnvelopeFromJSON parses a delivery body and rejects unknown types.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case TypeAudit, TypeCalendarUpsert, TypeCalendarDelete:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	return &env, nil
}
