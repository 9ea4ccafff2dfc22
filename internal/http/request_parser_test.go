package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "utc with Z",
			input: "2024-03-10T14:00:00Z",
			want:  time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset is normalized to UTC",
			input: "2024-03-10T16:00:00+02:00",
			want:  time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds",
			input: "2024-03-10T14:00:00.5Z",
			want:  time.Date(2024, 3, 10, 14, 0, 0, 500_000_000, time.UTC),
		},
		{
			name:  "naive timestamp read as UTC",
			input: "2024-03-10T14:00:00",
			want:  time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "bare date",
			input: " 2024-03-10 ",
			want:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{name: "garbage", input: "next tuesday", wantErr: true},
		{name: "invalid day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTime(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryTime(t *testing.T) {
	q := url.Values{"start": {"2024-03-10T14:00:00Z"}, "end": {""}, "bad": {"x"}}

	start, err := queryTime(q, "start")
	if err != nil || start == nil {
		t.Fatalf("queryTime(start) = %v, %v", start, err)
	}
	if end, err := queryTime(q, "end"); err != nil || end != nil {
		t.Errorf("empty value should be nil, got %v, %v", end, err)
	}
	if missing, err := queryTime(q, "missing"); err != nil || missing != nil {
		t.Errorf("missing value should be nil, got %v, %v", missing, err)
	}

	_, err = queryTime(q, "bad")
	var reqErr *requestError
	if !errors.As(err, &reqErr) || reqErr.status != http.StatusUnprocessableEntity {
		t.Errorf("queryTime(bad) error = %v, want 422 requestError", err)
	}
}

func TestQueryTags(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"none", "", nil},
		{"repeated", "tags=family&tags=calendar", []string{"family", "calendar"}},
		{"blank dropped", "tags=&tags=+finance+", []string{"finance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			if got := queryTags(q); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("queryTags(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/links/"+tt.value, nil)
		req.SetPathValue("id", tt.value)
		got, err := pathID(req)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("pathID(%q) = %d, %v", tt.value, got, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"title":"Bank"}`, 0},
		{"unknown fields ignored", `{"title":"Bank","extra":1}`, 0},
		{"empty", ``, http.StatusUnprocessableEntity},
		{"malformed", `{"title":`, http.StatusUnprocessableEntity},
		{"trailing data", `{"title":"a"} {"title":"b"}`, http.StatusUnprocessableEntity},
		{"too large", `{"title":"` + strings.Repeat("a", maxJSONBody) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("decodeJSON() error = %v", err)
				}
				if p.Title != "Bank" {
					t.Errorf("Title = %q, want Bank", p.Title)
				}
				return
			}
			var reqErr *requestError
			if !errors.As(err, &reqErr) || reqErr.status != tt.wantStatus {
				t.Errorf("decodeJSON() error = %v, want status %d", err, tt.wantStatus)
			}
		})
	}
}
