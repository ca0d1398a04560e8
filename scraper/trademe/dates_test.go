package trademe

import (
	"testing"
	"time"
)

func nzNow() time.Time {
	return time.Date(2025, time.August, 29, 10, 0, 0, 0, nzLocation)
}

func TestParseListDateToday(t *testing.T) {
	got, err := ParseListDate("Listed: Today", nzNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "29/08/2025" {
		t.Errorf("got %q, want %q", got, "29/08/2025")
	}
}

func TestParseListDateYesterday(t *testing.T) {
	got, err := ParseListDate("Listed: Yesterday", nzNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "28/08/2025" {
		t.Errorf("got %q, want %q", got, "28/08/2025")
	}
}

func TestParseListDateWeekdayMonthDay(t *testing.T) {
	got, err := ParseListDate("Listed: Mon, 4 Aug", nzNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "04/08/2025" {
		t.Errorf("got %q, want %q", got, "04/08/2025")
	}
}

func TestParseListDateConvertsNowToNZDay(t *testing.T) {
	// 23:00 UTC on the 29th is already the 30th in New Zealand.
	utcNow := time.Date(2025, time.August, 29, 23, 0, 0, 0, time.UTC)
	got, err := ParseListDate("Listed: Today", utcNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "30/08/2025" {
		t.Errorf("got %q, want %q", got, "30/08/2025")
	}
}

func TestParseListDateNoPrefix(t *testing.T) {
	got, err := ParseListDate("Tue, 12 Aug", nzNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12/08/2025" {
		t.Errorf("got %q, want %q", got, "12/08/2025")
	}
}

func TestParseListDateErrors(t *testing.T) {
	if _, err := ParseListDate("", nzNow()); err == nil {
		t.Error("empty text should error")
	}
	if _, err := ParseListDate("Listed: soonish", nzNow()); err == nil {
		t.Error("unparseable text should error")
	}
}
