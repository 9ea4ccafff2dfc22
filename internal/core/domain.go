package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleKid   Role = "kid"

	TodoOpen TodoStatus = "open"
	TodoDone TodoStatus = "done"

	SourceLocal  EventSource = "local"
	SourceGoogle EventSource = "google"
	SourceCalDAV EventSource = "caldav"
)

type (
	Role        string
	TodoStatus  string
	EventSource string

	// Date is a calendar date without a time component, always held in UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID    int64   `json:"id"`
		Name  string  `json:"name"`
		Role  Role    `json:"role"`
		Email *string `json:"email"`
	}

	Link struct {
		ID             int64      `json:"id"`
		Title          string     `json:"title"`
		URL            string     `json:"url"`
		Tags           []string   `json:"tags"`
		ClickCount     int64      `json:"click_count"`
		LastAccessedAt *time.Time `json:"last_accessed_at"`
		OwnerID        *int64     `json:"-"`
	}

	Contact struct {
		ID             int64      `json:"id"`
		Name           string     `json:"name"`
		Category       string     `json:"category"`
		Phone          *string    `json:"phone"`
		Hours          *string    `json:"hours"`
		URL            *string    `json:"url"`
		Notes          *string    `json:"notes"`
		LastVerifiedAt *time.Time `json:"last_verified_at"`
	}

	Todo struct {
		ID          int64      `json:"id"`
		Title       string     `json:"title"`
		Status      TodoStatus `json:"status"`
		Due         *time.Time `json:"due"`
		AssigneeID  *int64     `json:"assignee_id"`
		RepeatRule  *string    `json:"repeat_rule"`
		ListID      *string    `json:"list_id"`
		CompletedAt *time.Time `json:"completed_at"`
	}

	Event struct {
		ID         int64       `json:"id"`
		Title      string      `json:"title"`
		Start      time.Time   `json:"start"`
		End        time.Time   `json:"end"`
		AllDay     bool        `json:"all_day"`
		Source     EventSource `json:"source"`
		Color      *string     `json:"color"`
		Notes      *string     `json:"notes"`
		CreatedBy  *string     `json:"created_by"`
		AssigneeID *int64      `json:"assignee_id"`
	}

	// AuditEntry records one mutation for the audit trail.
	AuditEntry struct {
		ID       int64          `json:"id"`
		UserID   *int64         `json:"user_id"`
		Action   string         `json:"action"`
		Entity   string         `json:"entity"`
		EntityID string         `json:"entity_id"`
		Diff     map[string]any `json:"diff"`
		At       time.Time      `json:"at"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidSource   = errors.New("invalid source")
	ErrInvalidInterval = errors.New("end must not be before start")
)

// ValidationError is returned by Validate methods; it names the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func tooLong(field string, max int) error {
	return invalid(field, fmt.Errorf("too long (max %d characters)", max))
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so dates are stored as sortable TEXT.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleKid:
		return true
	}
	return false
}

func (s TodoStatus) IsValid() bool {
	return s == TodoOpen || s == TodoDone
}

func (s EventSource) IsValid() bool {
	switch s {
	case SourceLocal, SourceGoogle, SourceCalDAV:
		return true
	}
	return false
}

// ValidateHTTPURL accepts absolute http and https URLs only.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if len(u.Name) > 100 {
		return tooLong("name", 100)
	}
	if !u.Role.IsValid() {
		return invalid("role", ErrInvalidRole)
	}
	return nil
}

func (l Link) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if len(l.Title) > 200 {
		return tooLong("title", 200)
	}
	if len(l.URL) > 500 {
		return tooLong("url", 500)
	}
	if err := ValidateHTTPURL(l.URL); err != nil {
		return invalid("url", err)
	}
	return nil
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if len(c.Name) > 200 {
		return tooLong("name", 200)
	}
	if strings.TrimSpace(c.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if len(c.Category) > 100 {
		return tooLong("category", 100)
	}
	if c.Phone != nil && len(*c.Phone) > 30 {
		return tooLong("phone", 30)
	}
	if c.Hours != nil && len(*c.Hours) > 200 {
		return tooLong("hours", 200)
	}
	if c.URL != nil {
		if len(*c.URL) > 500 {
			return tooLong("url", 500)
		}
		if err := ValidateHTTPURL(*c.URL); err != nil {
			return invalid("url", err)
		}
	}
	return nil
}

func (t Todo) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if len(t.Title) > 200 {
		return tooLong("title", 200)
	}
	if !t.Status.IsValid() {
		return invalid("status", ErrInvalidStatus)
	}
	if t.RepeatRule != nil && len(*t.RepeatRule) > 100 {
		return tooLong("repeat_rule", 100)
	}
	if t.ListID != nil && len(*t.ListID) > 50 {
		return tooLong("list_id", 50)
	}
	return nil
}

func (e Event) Validate() error {
	if len(e.Title) == 0 {
		return invalid("title", ErrEmptyTitle)
	}
	if len(e.Title) > 200 {
		return tooLong("title", 200)
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return invalid("start", errors.New("start and end are required"))
	}
	if e.End.Before(e.Start) {
		return invalid("end", ErrInvalidInterval)
	}
	if !e.Source.IsValid() {
		return invalid("source", ErrInvalidSource)
	}
	if e.Color != nil && len(*e.Color) > 20 {
		return tooLong("color", 20)
	}
	if e.CreatedBy != nil && len(*e.CreatedBy) > 100 {
		return tooLong("created_by", 100)
	}
	return nil
}
