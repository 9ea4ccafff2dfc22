package core

import "time"

// Partial updates. A nil field is left untouched.
type (
	LinkPatch struct {
		Title *string   `json:"title"`
		URL   *string   `json:"url"`
		Tags  *[]string `json:"tags"`
	}

	ContactPatch struct {
		Name           *string    `json:"name"`
		Category       *string    `json:"category"`
		Phone          *string    `json:"phone"`
		Hours          *string    `json:"hours"`
		URL            *string    `json:"url"`
		Notes          *string    `json:"notes"`
		LastVerifiedAt *time.Time `json:"last_verified_at"`
	}

	TodoPatch struct {
		Title       *string     `json:"title"`
		Status      *TodoStatus `json:"status"`
		Due         *time.Time  `json:"due"`
		AssigneeID  *int64      `json:"assignee_id"`
		RepeatRule  *string     `json:"repeat_rule"`
		ListID      *string     `json:"list_id"`
		CompletedAt *time.Time  `json:"completed_at"`
	}

	EventPatch struct {
		Title      *string      `json:"title"`
		Start      *time.Time   `json:"start"`
		End        *time.Time   `json:"end"`
		AllDay     *bool        `json:"all_day"`
		Source     *EventSource `json:"source"`
		Color      *string      `json:"color"`
		Notes      *string      `json:"notes"`
		CreatedBy  *string      `json:"created_by"`
		AssigneeID *int64       `json:"assignee_id"`
	}
)

func (p LinkPatch) Apply(l *Link) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.URL != nil {
		l.URL = *p.URL
	}
	if p.Tags != nil {
		l.Tags = append([]string(nil), (*p.Tags)...)
	}
}

func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Phone != nil {
		c.Phone = p.Phone
	}
	if p.Hours != nil {
		c.Hours = p.Hours
	}
	if p.URL != nil {
		c.URL = p.URL
	}
	if p.Notes != nil {
		c.Notes = p.Notes
	}
	if p.LastVerifiedAt != nil {
		c.LastVerifiedAt = p.LastVerifiedAt
	}
}

// Apply updates t and stamps CompletedAt when the todo becomes done without one.
func (p TodoPatch) Apply(t *Todo, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Due != nil {
		t.Due = p.Due
	}
	if p.AssigneeID != nil {
		t.AssigneeID = p.AssigneeID
	}
	if p.RepeatRule != nil {
		t.RepeatRule = p.RepeatRule
	}
	if p.ListID != nil {
		t.ListID = p.ListID
	}
	if p.CompletedAt != nil {
		t.CompletedAt = p.CompletedAt
	}
	if t.Status == TodoDone && t.CompletedAt == nil {
		stamp := now.UTC()
		t.CompletedAt = &stamp
	}
}

func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.AllDay != nil {
		e.AllDay = *p.AllDay
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.Color != nil {
		e.Color = p.Color
	}
	if p.Notes != nil {
		e.Notes = p.Notes
	}
	if p.CreatedBy != nil {
		e.CreatedBy = p.CreatedBy
	}
	if p.AssigneeID != nil {
		e.AssigneeID = p.AssigneeID
	}
}
