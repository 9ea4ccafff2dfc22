package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-15", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024/01/15", false},
		{"15-01-2024", false},
		{"2024-1-5", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			require.Error(t, err, tc.in)
			assert.ErrorIs(t, err, ErrInvalidDate)
			assert.Contains(t, err.Error(), tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.in, d.String())
	}
}

func TestDateJSONAndScan(t *testing.T) {
	d := NewDate(2024, 12, 31)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-31"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
	assert.Equal(t, "2024-12", back.MonthKey())

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2024-03-01")))
	assert.Equal(t, "2024-03-01", scanned.String())
	require.NoError(t, scanned.Scan(time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-06", scanned.String())
	assert.Error(t, scanned.Scan(42))
}

func TestDateRangeContains(t *testing.T) {
	from := NewDate(2024, 2, 1)
	before := NewDate(2024, 3, 1)
	r := DateRange{From: &from, Before: &before}

	assert.False(t, r.Contains(NewDate(2024, 1, 31)))
	assert.True(t, r.Contains(NewDate(2024, 2, 1)))
	assert.True(t, r.Contains(NewDate(2024, 2, 29)))
	assert.False(t, r.Contains(NewDate(2024, 3, 1)))
	assert.True(t, DateRange{}.Contains(NewDate(1999, 1, 1)))
}

func TestLinkValidate(t *testing.T) {
	good := Link{Title: "Family Calendar", URL: "https://calendar.example.com"}
	require.NoError(t, good.Validate())

	bads := []Link{
		{Title: "", URL: "https://example.com"},
		{Title: "x", URL: "ftp://example.com"},
		{Title: "x", URL: "not a url"},
		{Title: "x", URL: "https://"},
	}
	for i, l := range bads {
		err := l.Validate()
		require.Error(t, err, "case %d", i)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "case %d", i)
	}
}

func TestContactValidate(t *testing.T) {
	require.NoError(t, Contact{Name: "Plumber", Category: "home"}.Validate())
	require.NoError(t, Contact{Name: "Vet", Category: "pets", URL: strPtr("http://vet.example")}.Validate())

	assert.ErrorIs(t, Contact{Category: "home"}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Contact{Name: "x"}.Validate(), ErrEmptyCategory)
	assert.ErrorIs(t, Contact{Name: "x", Category: "y", URL: strPtr("mailto:a@b")}.Validate(), ErrInvalidURL)
}

func TestTodoPatchStampsCompletion(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	todo := Todo{Title: "Laundry", Status: TodoOpen}
	done := TodoDone

	TodoPatch{Status: &done}.Apply(&todo, now)
	require.NotNil(t, todo.CompletedAt)
	assert.Equal(t, now, *todo.CompletedAt)

	// An explicit completion time is kept.
	earlier := now.Add(-time.Hour)
	other := Todo{Title: "Dishes", Status: TodoOpen}
	TodoPatch{Status: &done, CompletedAt: &earlier}.Apply(&other, now)
	assert.Equal(t, earlier, *other.CompletedAt)
}

func TestEventValidate(t *testing.T) {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	e := Event{Title: "Planning", Start: start, End: start.Add(time.Hour), Source: SourceLocal}
	require.NoError(t, e.Validate())

	bad := e
	bad.End = start.Add(-time.Minute)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInterval)

	bad = e
	bad.Source = "outlook"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSource)

	bad = e
	bad.Color = strPtr("a-very-long-color-name-indeed")
	assert.Error(t, bad.Validate())
}
