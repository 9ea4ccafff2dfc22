// Package google mirrors local events into a Google Calendar using a
// service account.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"homeportal/internal/calendar"
	"homeportal/internal/core"
)

// EventIDPrefix namespaces mirrored events. Google event IDs may only use
// the base32hex alphabet, which this prefix does.
const EventIDPrefix = "homeportal"

var _ calendar.Mirror = (*Client)(nil)

type Client struct {
	svc        *gcal.Service
	calendarID string
}

// New builds a client from a base64 encoded service account JSON key.
// Extra options are appended after the credentials.
func New(ctx context.Context, calendarID, credentialsBase64 string, opts ...goption.ClientOption) (*Client, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return nil, errors.New("missing calendar ID")
	}
	credentialsJSON, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentialsBase64))
	if err != nil {
		return nil, fmt.Errorf("decode service account credentials: %w", err)
	}

	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gcal.CalendarEventsScope),
	}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	slog.InfoContext(ctx, "Google Calendar service created", "calendar_id", calendarID)
	return NewWithService(svc, calendarID), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gcal.Service, calendarID string) *Client {
	return &Client{svc: svc, calendarID: calendarID}
}

func EventID(id int64) string {
	return EventIDPrefix + strconv.FormatInt(id, 10)
}

// Upsert replaces the mirrored copy of e, inserting it on first sight.
func (c *Client) Upsert(ctx context.Context, e core.Event) error {
	ge := toGoogle(e)

	_, err := c.svc.Events.Update(c.calendarID, ge.Id, ge).Context(ctx).Do()
	if isStatus(err, http.StatusNotFound) {
		_, err = c.svc.Events.Insert(c.calendarID, ge).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("upsert calendar event %s: %w", ge.Id, err)
	}
	return nil
}

// Delete removes the mirrored copy. Missing copies are not an error.
func (c *Client) Delete(ctx context.Context, eventID int64) error {
	id := EventID(eventID)
	err := c.svc.Events.Delete(c.calendarID, id).Context(ctx).Do()
	if err != nil && !isStatus(err, http.StatusNotFound) && !isStatus(err, http.StatusGone) {
		return fmt.Errorf("delete calendar event %s: %w", id, err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func toGoogle(e core.Event) *gcal.Event {
	ge := &gcal.Event{
		Id:      EventID(e.ID),
		Summary: e.Title,
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{"homeportal_id": strconv.FormatInt(e.ID, 10)},
		},
	}
	if e.Notes != nil {
		ge.Description = *e.Notes
	}
	if e.CreatedBy != nil {
		ge.ExtendedProperties.Private["created_by"] = *e.CreatedBy
	}

	if e.AllDay {
		// Google treats the end date of all-day events as exclusive.
		end := e.End
		if end.Before(e.Start) {
			end = e.Start
		}
		ge.Start = &gcal.EventDateTime{Date: e.Start.UTC().Format(core.DateLayout)}
		ge.End = &gcal.EventDateTime{Date: end.UTC().AddDate(0, 0, 1).Format(core.DateLayout)}
		return ge
	}

	ge.Start = &gcal.EventDateTime{DateTime: e.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	ge.End = &gcal.EventDateTime{DateTime: e.End.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	return ge
}
