package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = ParseDate("2026-03-02T15:04:05Z")
	if err != nil {
		t.Fatalf("ParseDate RFC3339: %v", err)
	}
	if got.Day() != 2 || got.Hour() != 15 {
		t.Errorf("RFC3339 parse wrong: %v", got)
	}

	if _, err := ParseDate("03/02/2026"); err == nil {
		t.Error("slash format must not parse")
	}

	got, err = ParseDate("")
	if err != nil || !got.IsZero() {
		t.Errorf("empty input: got %v, %v", got, err)
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10&offset=40", nil)
	page := ParsePagination(r, 25, 100)
	if page.Limit != 10 || page.Offset != 40 {
		t.Errorf("got %+v", page)
	}

	r = httptest.NewRequest("GET", "/", nil)
	page = ParsePagination(r, 25, 100)
	if page.Limit != 25 || page.Offset != 0 {
		t.Errorf("defaults: got %+v", page)
	}

	r = httptest.NewRequest("GET", "/?limit=9999", nil)
	page = ParsePagination(r, 25, 100)
	if page.Limit != 100 {
		t.Errorf("limit not clamped: got %d", page.Limit)
	}

	r = httptest.NewRequest("GET", "/?limit=-5&offset=-1", nil)
	page = ParsePagination(r, 25, 100)
	if page.Limit != 25 || page.Offset != 0 {
		t.Errorf("negative values not ignored: got %+v", page)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:51234"
	if got := ClientIP(r); got != "10.1.2.3" {
		t.Errorf("got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("forwarded: got %q", got)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	if v.HasIssues() {
		t.Error("fresh validator must have no issues")
	}

	start, ok := v.Date("startDate", "2026-03-06")
	if !ok {
		t.Fatal("valid date rejected")
	}
	end, ok := v.Date("endDate", "2026-03-02")
	if !ok {
		t.Fatal("valid date rejected")
	}
	v.DateOrder("startDate", start, "endDate", end)
	if !v.HasIssues() {
		t.Error("inverted order must produce issues")
	}

	v = NewValidator()
	if _, ok := v.Date("startDate", "not-a-date"); ok {
		t.Error("garbage date accepted")
	}
	v.Required("reason", "", "is required")
	if len(v.Issues()) != 2 {
		t.Errorf("issues = %d, want 2", len(v.Issues()))
	}
}
