package services

import (
	"strings"
	"time"
)

// Recurrence computes the next due time of a repeating todo. Each supported
// repeat rule has its own implementation.
type Recurrence interface {
	Next(from time.Time) time.Time
}

type DailyRecurrence struct{}

func (DailyRecurrence) Next(from time.Time) time.Time { return from.AddDate(0, 0, 1) }

type WeeklyRecurrence struct{}

func (WeeklyRecurrence) Next(from time.Time) time.Time { return from.AddDate(0, 0, 7) }

// MonthlyRecurrence keeps the day of month, clamped to the length of the
// target month: Jan 31 is followed by the last day of February.
type MonthlyRecurrence struct{}

func (MonthlyRecurrence) Next(from time.Time) time.Time { return addMonthsClamped(from, 1) }

// YearlyRecurrence moves Feb 29 to Feb 28 in common years.
type YearlyRecurrence struct{}

func (YearlyRecurrence) Next(from time.Time) time.Time { return addMonthsClamped(from, 12) }

func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return firstOfTarget.AddDate(0, 0, day-1)
}

var recurrences = map[string]Recurrence{
	"daily":   DailyRecurrence{},
	"weekly":  WeeklyRecurrence{},
	"monthly": MonthlyRecurrence{},
	"yearly":  YearlyRecurrence{},
}

// RecurrenceFor looks up a repeat rule. Free-text rules are stored as given
// but do not schedule follow-ups.
func RecurrenceFor(rule string) (Recurrence, bool) {
	r, ok := recurrences[strings.ToLower(strings.TrimSpace(rule))]
	return r, ok
}

// nextDue is one period after the previous due time, or after completedAt
// when the todo had no due time.
func nextDue(r Recurrence, due *time.Time, completedAt time.Time) time.Time {
	if due != nil {
		return r.Next(*due)
	}
	return r.Next(completedAt)
}
