package syncer_test

import (
	"context"
	"testing"

	"journalvault/internal/content"
	"journalvault/internal/identity"
	"journalvault/internal/keyring"
	"journalvault/internal/keystore"
	"journalvault/internal/localcache"
	"journalvault/internal/store"
	"journalvault/internal/syncer"
)

type fixture struct {
	rec    *syncer.Reconciler
	svc    *content.Service
	keys   *keyring.Keyring
	remote *store.MemoryStore
	cache  *localcache.FileCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	remote := store.NewMemoryStore()
	cache := localcache.New(t.TempDir())
	keys := keyring.New(remote, identity.Static("user-1"), keystore.NewFileKeystore(t.TempDir()))
	svc := content.NewService(keys, remote, cache, identity.Static("user-1"))
	return &fixture{
		rec:    syncer.New(keys, svc, cache),
		svc:    svc,
		keys:   keys,
		remote: remote,
		cache:  cache,
	}
}

func seedLocalData(t *testing.T, cache *localcache.FileCache) {
	t.Helper()
	if err := cache.SaveHabits([]content.Habit{
		{ID: "h1", Name: "run", CreatedAt: "2026-01-01T00:00:00Z"},
	}); err != nil {
		t.Fatalf("seed habits: %v", err)
	}
	if err := cache.SaveDailyEntries([]content.DailyEntry{
		{Date: "2026-01-20", Entries: []content.JournalEntry{
			{ID: "e1", Text: "first"},
			{ID: "e2", Text: "second"},
		}},
		{Date: "2026-01-21", Entries: []content.JournalEntry{
			{ID: "e3", Text: "third"},
		}},
	}); err != nil {
		t.Fatalf("seed entries: %v", err)
	}
	if err := cache.SaveHabitLogs([]content.HabitLog{
		{HabitID: "h1", Date: "2026-01-20", Completed: true},
		{HabitID: "h1", Date: "2026-01-21", Completed: false},
	}); err != nil {
		t.Fatalf("seed logs: %v", err)
	}
}

func TestSyncRequiresUnlockedKeyring(t *testing.T) {
	f := newFixture(t)
	if err := f.rec.SyncLocalDataToCloud(context.Background()); err != keyring.ErrLocked {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestSyncPushesLocalData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedLocalData(t, f.cache)
	if err := f.keys.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := f.rec.SyncLocalDataToCloud(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if n := f.remote.Calls("ReplaceHabits"); n != 1 {
		t.Fatalf("ReplaceHabits calls = %d, want 1", n)
	}
	// One save per distinct local date.
	if n := f.remote.Calls("UpsertEntry"); n != 2 {
		t.Fatalf("UpsertEntry calls = %d, want 2", n)
	}
	// Only the completed log is pushed.
	if n := f.remote.Calls("UpsertHabitLog"); n != 1 {
		t.Fatalf("UpsertHabitLog calls = %d, want 1", n)
	}

	day, src, err := f.svc.LoadEntriesForDate(ctx, "2026-01-20")
	if err != nil {
		t.Fatalf("load synced day: %v", err)
	}
	if src != content.SourceRemote || len(day.Entries) != 2 {
		t.Fatalf("synced day = %+v from %v, want both entries from remote", day, src)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedLocalData(t, f.cache)
	if err := f.keys.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := f.rec.SyncLocalDataToCloud(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := f.rec.SyncLocalDataToCloud(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	days, _, err := f.svc.LoadEntriesForMonth(ctx, "2026-01")
	if err != nil {
		t.Fatalf("load month: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("double sync produced %d remote days, want 2", len(days))
	}
	for _, d := range days {
		if d.Date == "2026-01-20" && len(d.Entries) != 2 {
			t.Fatalf("day %s has %d entries after double sync, want 2", d.Date, len(d.Entries))
		}
	}
}

func TestSyncSkipsEmptyLocalState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.keys.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := f.rec.SyncLocalDataToCloud(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n := f.remote.Calls("ReplaceHabits") + f.remote.Calls("UpsertEntry") + f.remote.Calls("UpsertHabitLog"); n != 0 {
		t.Fatalf("empty sync made %d content calls, want 0", n)
	}
}
