package content

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeCurrentShape(t *testing.T) {
	in := dayPayload{
		Date: "2026-01-20",
		Entries: []JournalEntry{
			{ID: "e1", Text: "first", CreatedAt: "2026-01-20T08:00:00Z"},
			{ID: "e2", Text: "second", CreatedAt: "2026-01-20T21:00:00Z", MediaURLs: []string{"https://cdn/x.jpg"}},
		},
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	day, err := decodeDayPayload(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := DailyEntry{Date: in.Date, Entries: in.Entries}
	if diff := cmp.Diff(want, day); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCurrentShapeEmptyEntries(t *testing.T) {
	day, err := decodeDayPayload([]byte(`{"date":"2026-01-20","entries":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.Date != "2026-01-20" || len(day.Entries) != 0 {
		t.Fatalf("unexpected day: %+v", day)
	}
}

func TestDecodeLegacySingleEntryShape(t *testing.T) {
	legacy := []byte(`{"date":"2025-11-02","id":"old-1","text":"pre-migration note","createdAt":"2025-11-02T10:00:00Z"}`)
	day, err := decodeDayPayload(legacy)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := DailyEntry{
		Date: "2025-11-02",
		Entries: []JournalEntry{
			{ID: "old-1", Text: "pre-migration note", CreatedAt: "2025-11-02T10:00:00Z"},
		},
	}
	if diff := cmp.Diff(want, day); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownShape(t *testing.T) {
	if _, err := decodeDayPayload([]byte(`{"date":"2026-01-20"}`)); err == nil {
		t.Fatal("expected error for payload with neither shape")
	}
	if _, err := decodeDayPayload([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
