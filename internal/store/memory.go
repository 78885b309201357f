package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests. It counts every call so
// tests can assert that locked-mode code paths never touch the remote store.
type MemoryStore struct {
	mu        sync.Mutex
	profiles  map[string]KeyMaterial
	entries   map[string]EntryRow    // ownerID + "/" + dayBucket
	habits    map[string][]HabitRow  // ownerID
	habitLogs map[string]HabitLogRow // ownerID + "/" + dayBucket
	accounts  map[string]Account
	calls     map[string]int

	// FailWrites makes every mutating call return the given error; used to
	// exercise the local-first fallback paths.
	FailWrites error
	// FailReads does the same for read calls.
	FailReads error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  map[string]KeyMaterial{},
		entries:   map[string]EntryRow{},
		habits:    map[string][]HabitRow{},
		habitLogs: map[string]HabitLogRow{},
		accounts:  map[string]Account{},
		calls:     map[string]int{},
	}
}

// Calls returns how many times the named method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls sums every recorded invocation.
func (m *MemoryStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MemoryStore) record(method string) {
	m.calls[method]++
}

func rowKey(ownerID, dayBucket string) string { return ownerID + "/" + dayBucket }

func (m *MemoryStore) GetKeyMaterial(_ context.Context, userID string) (KeyMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetKeyMaterial")
	if m.FailReads != nil {
		return KeyMaterial{}, m.FailReads
	}
	km, ok := m.profiles[userID]
	if !ok {
		return KeyMaterial{}, ErrNotFound
	}
	return km, nil
}

func (m *MemoryStore) PutKeyMaterial(_ context.Context, km KeyMaterial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PutKeyMaterial")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.profiles[km.UserID] = km
	return nil
}

func (m *MemoryStore) DeleteKeyMaterial(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteKeyMaterial")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.profiles, userID)
	return nil
}

func (m *MemoryStore) UpsertEntry(_ context.Context, row EntryRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpsertEntry")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.entries[rowKey(row.OwnerID, row.DayBucket)] = row
	return nil
}

func (m *MemoryStore) GetEntryByDay(_ context.Context, ownerID, dayBucket string) (EntryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetEntryByDay")
	if m.FailReads != nil {
		return EntryRow{}, m.FailReads
	}
	row, ok := m.entries[rowKey(ownerID, dayBucket)]
	if !ok {
		return EntryRow{}, ErrNotFound
	}
	return row, nil
}

func (m *MemoryStore) ListEntriesByMonth(_ context.Context, ownerID, monthBucket string) ([]EntryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListEntriesByMonth")
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var rows []EntryRow
	for _, row := range m.entries {
		if row.OwnerID == ownerID && row.MonthBucket == monthBucket {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *MemoryStore) ReplaceHabits(_ context.Context, ownerID string, rows []HabitRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReplaceHabits")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	cp := make([]HabitRow, len(rows))
	copy(cp, rows)
	for i := range cp {
		cp[i].OwnerID = ownerID
	}
	m.habits[ownerID] = cp
	return nil
}

func (m *MemoryStore) ListHabits(_ context.Context, ownerID string) ([]HabitRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListHabits")
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	return append([]HabitRow(nil), m.habits[ownerID]...), nil
}

func (m *MemoryStore) UpsertHabitLog(_ context.Context, row HabitLogRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpsertHabitLog")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.habitLogs[rowKey(row.OwnerID, row.DayBucket)] = row
	return nil
}

func (m *MemoryStore) GetHabitLogByDay(_ context.Context, ownerID, dayBucket string) (HabitLogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetHabitLogByDay")
	if m.FailReads != nil {
		return HabitLogRow{}, m.FailReads
	}
	row, ok := m.habitLogs[rowKey(ownerID, dayBucket)]
	if !ok {
		return HabitLogRow{}, ErrNotFound
	}
	return row, nil
}

func (m *MemoryStore) ListHabitLogsByMonth(_ context.Context, ownerID, monthBucket string) ([]HabitLogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListHabitLogsByMonth")
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var rows []HabitLogRow
	for _, row := range m.habitLogs {
		if row.OwnerID == ownerID && row.MonthBucket == monthBucket {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *MemoryStore) GetAccount(_ context.Context, userID string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetAccount")
	if m.FailReads != nil {
		return Account{}, m.FailReads
	}
	acct, ok := m.accounts[userID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (m *MemoryStore) PutAccount(_ context.Context, acct Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PutAccount")
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.accounts[acct.UserID] = acct
	return nil
}

var _ Store = (*MemoryStore)(nil)
