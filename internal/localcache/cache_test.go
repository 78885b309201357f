package localcache

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"journalvault/internal/content"
)

func TestDailyEntriesRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	in := []content.DailyEntry{
		{Date: "2026-01-20", Entries: []content.JournalEntry{
			{ID: "e1", Text: "first", CreatedAt: "2026-01-20T08:00:00Z"},
			{ID: "e2", Text: "second", CreatedAt: "2026-01-20T21:00:00Z"},
		}},
		{Date: "2026-01-21", Entries: []content.JournalEntry{
			{ID: "e3", Text: "third", CreatedAt: "2026-01-21T09:00:00Z"},
		}},
	}
	if err := c.SaveDailyEntries(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := c.DailyEntries()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip mismatch (-in +out):\n%s", diff)
	}
}

func TestDailyEntriesForDate(t *testing.T) {
	c := New(t.TempDir())
	if err := c.SaveDailyEntries([]content.DailyEntry{
		{Date: "2026-01-20", Entries: []content.JournalEntry{{ID: "e1", Text: "hi"}}},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	day, err := c.DailyEntriesForDate("2026-01-20")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(day.Entries) != 1 || day.Entries[0].ID != "e1" {
		t.Fatalf("unexpected day: %+v", day)
	}

	empty, err := c.DailyEntriesForDate("2026-02-01")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if empty.Date != "2026-02-01" || len(empty.Entries) != 0 {
		t.Fatalf("expected empty day, got %+v", empty)
	}
}

func TestEmptyCacheReads(t *testing.T) {
	c := New(t.TempDir())
	if habits, err := c.Habits(); err != nil || len(habits) != 0 {
		t.Fatalf("habits = %v, %v", habits, err)
	}
	if logs, err := c.HabitLogs(); err != nil || len(logs) != 0 {
		t.Fatalf("logs = %v, %v", logs, err)
	}
}

func TestClearAll(t *testing.T) {
	c := New(t.TempDir())
	if err := c.SaveHabits([]content.Habit{{ID: "h1", Name: "run"}}); err != nil {
		t.Fatalf("save habits: %v", err)
	}
	if err := c.SaveHabitLogs([]content.HabitLog{{HabitID: "h1", Date: "2026-01-20", Completed: true}}); err != nil {
		t.Fatalf("save logs: %v", err)
	}
	if err := c.ClearAll(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if habits, _ := c.Habits(); len(habits) != 0 {
		t.Fatal("habits survived ClearAll")
	}
	if logs, _ := c.HabitLogs(); len(logs) != 0 {
		t.Fatal("logs survived ClearAll")
	}
	if err := c.ClearAll(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
