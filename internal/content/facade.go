// Package content is the single choke point for every content read and
// write. It decides per call whether to work through encryption against the
// remote store or stay in plaintext local-only mode, and it performs the
// encrypt/decrypt and bucket computation consistently for journal entries,
// habits and habit logs.
package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"journalvault/internal/bucket"
	"journalvault/internal/crypto"
	"journalvault/internal/identity"
	"journalvault/internal/keyring"
	"journalvault/internal/store"
)

// ErrRemoteUnavailable marks a failed remote call whose local counterpart
// already succeeded. Callers treat it as "saved locally, will sync later".
var ErrRemoteUnavailable = errors.New("content: remote store unavailable")

type Service struct {
	keys   *keyring.Keyring
	remote store.Store
	cache  Cache
	ident  identity.Provider
	logger *log.Logger
}

func NewService(keys *keyring.Keyring, remote store.Store, cache Cache, ident identity.Provider) *Service {
	return &Service{
		keys:   keys,
		remote: remote,
		cache:  cache,
		ident:  ident,
		logger: log.New(os.Stdout, "[content] ", log.LstdFlags),
	}
}

// session gathers everything a remote operation needs. ok is false when the
// call must stay local-only: locked keyring or no authenticated identity.
// Keys are re-read here rather than cached by callers because a lock can
// land between an IsUnlocked check and use.
func (s *Service) session(ctx context.Context) (uid string, master []byte, gen *bucket.Generator, ok bool) {
	if !s.keys.IsUnlocked() {
		return "", nil, nil, false
	}
	uid, err := s.ident.CurrentUserID(ctx)
	if err != nil {
		return "", nil, nil, false
	}
	master, err = s.keys.MasterKey()
	if err != nil {
		return "", nil, nil, false
	}
	bk, err := s.keys.BucketKey()
	if err != nil {
		return "", nil, nil, false
	}
	return uid, master, bucket.NewGenerator(bk), true
}

func remoteErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
}

func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// ---------- JOURNAL ENTRIES ----------

// SaveEntry merges one entry into its day locally, then re-encrypts and
// upserts the whole day remotely. The local write always happens first and
// is never rolled back; a remote failure comes back wrapped in
// ErrRemoteUnavailable.
func (s *Service) SaveEntry(ctx context.Context, date string, entry JournalEntry) error {
	all, err := s.cache.DailyEntries()
	if err != nil {
		return err
	}
	merged := false
	for i := range all {
		if all[i].Date != date {
			continue
		}
		replaced := false
		for j := range all[i].Entries {
			if all[i].Entries[j].ID == entry.ID {
				all[i].Entries[j] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			all[i].Entries = append(all[i].Entries, entry)
		}
		merged = true
		break
	}
	if !merged {
		all = append(all, DailyEntry{Date: date, Entries: []JournalEntry{entry}})
	}
	if err := s.cache.SaveDailyEntries(all); err != nil {
		return err
	}
	return s.SaveDay(ctx, date)
}

// SaveDay pushes the full local day to the remote store: the whole logical
// unit is re-encrypted so sibling entries in the same row are never
// clobbered. A locked keyring or missing identity is a silent no-op.
func (s *Service) SaveDay(ctx context.Context, date string) error {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		return nil
	}
	defer crypto.Zero(master)

	day, err := s.cache.DailyEntriesForDate(date)
	if err != nil {
		return err
	}
	ct, nonce, err := crypto.EncryptJSON(master, dayPayload{Date: date, Entries: day.Entries})
	if err != nil {
		return err
	}
	row := store.EntryRow{
		OwnerID:     uid,
		DayBucket:   gen.ForDay(date),
		MonthBucket: gen.ForMonth(monthOf(date)),
		Ciphertext:  ct,
		Nonce:       nonce,
	}
	if err := s.remote.UpsertEntry(ctx, row); err != nil {
		return remoteErr("save day", err)
	}
	return nil
}

// LoadEntriesForDate returns one day's entries. Locked mode reads the local
// cache; unlocked mode decrypts the remote row and refreshes the cache. A
// failed remote call falls back to the cache, reported via Source.
func (s *Service) LoadEntriesForDate(ctx context.Context, date string) (DailyEntry, Source, error) {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		day, err := s.cache.DailyEntriesForDate(date)
		return day, SourceLocal, err
	}
	defer crypto.Zero(master)

	row, err := s.remote.GetEntryByDay(ctx, uid, gen.ForDay(date))
	if errors.Is(err, store.ErrNotFound) {
		return DailyEntry{Date: date}, SourceRemote, nil
	}
	if err != nil {
		s.logger.Printf("remote entry read failed, serving cache: %v", err)
		day, cerr := s.cache.DailyEntriesForDate(date)
		return day, SourceLocalFallback, cerr
	}

	day, derr := s.decryptDay(master, row)
	if derr != nil {
		s.logger.Printf("skipping undecryptable entry row: %v", derr)
		return DailyEntry{Date: date}, SourceRemote, nil
	}
	s.refreshCachedDays([]DailyEntry{day})
	return day, SourceRemote, nil
}

// LoadEntriesForMonth returns every day of one month, sorted by date.
// Rows that fail to decrypt are skipped and logged; one corrupt or foreign
// row must not deny access to the rest of the month.
func (s *Service) LoadEntriesForMonth(ctx context.Context, yearMonth string) ([]DailyEntry, Source, error) {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		days, err := s.cachedDaysForMonth(yearMonth)
		return days, SourceLocal, err
	}
	defer crypto.Zero(master)

	rows, err := s.remote.ListEntriesByMonth(ctx, uid, gen.ForMonth(yearMonth))
	if err != nil {
		s.logger.Printf("remote month read failed, serving cache: %v", err)
		days, cerr := s.cachedDaysForMonth(yearMonth)
		return days, SourceLocalFallback, cerr
	}

	days := make([]DailyEntry, 0, len(rows))
	for _, row := range rows {
		day, derr := s.decryptDay(master, row)
		if derr != nil {
			s.logger.Printf("skipping undecryptable entry row: %v", derr)
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	s.refreshCachedDays(days)
	return days, SourceRemote, nil
}

func (s *Service) decryptDay(master []byte, row store.EntryRow) (DailyEntry, error) {
	pt, err := crypto.Decrypt(master, row.Ciphertext, row.Nonce)
	if err != nil {
		return DailyEntry{}, err
	}
	defer crypto.Zero(pt)
	return decodeDayPayload(pt)
}

func (s *Service) cachedDaysForMonth(yearMonth string) ([]DailyEntry, error) {
	all, err := s.cache.DailyEntries()
	if err != nil {
		return nil, err
	}
	var days []DailyEntry
	for _, d := range all {
		if strings.HasPrefix(d.Date, yearMonth) {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// refreshCachedDays folds freshly decrypted days back into the local cache
// so later offline reads reflect the latest cloud state. Best-effort.
func (s *Service) refreshCachedDays(days []DailyEntry) {
	if len(days) == 0 {
		return
	}
	all, err := s.cache.DailyEntries()
	if err != nil {
		s.logger.Printf("cache refresh read failed: %v", err)
		return
	}
	byDate := make(map[string]int, len(all))
	for i, d := range all {
		byDate[d.Date] = i
	}
	for _, day := range days {
		if i, ok := byDate[day.Date]; ok {
			all[i] = day
		} else {
			all = append(all, day)
		}
	}
	if err := s.cache.SaveDailyEntries(all); err != nil {
		s.logger.Printf("cache refresh write failed: %v", err)
	}
}

// ---------- HABITS ----------

// SaveHabits replaces the habit list locally and remotely. Remotely each
// habit is its own encrypted row and the owner's collection is replaced
// wholesale; habit lists are small enough that this beats diffing.
func (s *Service) SaveHabits(ctx context.Context, habits []Habit) error {
	if err := s.cache.SaveHabits(habits); err != nil {
		return err
	}
	uid, master, _, ok := s.session(ctx)
	if !ok {
		return nil
	}
	defer crypto.Zero(master)

	rows := make([]store.HabitRow, 0, len(habits))
	for _, h := range habits {
		ct, nonce, err := crypto.EncryptJSON(master, h)
		if err != nil {
			return err
		}
		rows = append(rows, store.HabitRow{OwnerID: uid, Ciphertext: ct, Nonce: nonce})
	}
	if err := s.remote.ReplaceHabits(ctx, uid, rows); err != nil {
		return remoteErr("save habits", err)
	}
	return nil
}

func (s *Service) LoadHabits(ctx context.Context) ([]Habit, Source, error) {
	uid, master, _, ok := s.session(ctx)
	if !ok {
		habits, err := s.cache.Habits()
		return habits, SourceLocal, err
	}
	defer crypto.Zero(master)

	rows, err := s.remote.ListHabits(ctx, uid)
	if err != nil {
		s.logger.Printf("remote habit read failed, serving cache: %v", err)
		habits, cerr := s.cache.Habits()
		return habits, SourceLocalFallback, cerr
	}

	habits := make([]Habit, 0, len(rows))
	for _, row := range rows {
		var h Habit
		if derr := crypto.DecryptJSON(master, row.Ciphertext, row.Nonce, &h); derr != nil {
			s.logger.Printf("skipping undecryptable habit row: %v", derr)
			continue
		}
		habits = append(habits, h)
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].CreatedAt < habits[j].CreatedAt })
	if err := s.cache.SaveHabits(habits); err != nil {
		s.logger.Printf("cache refresh write failed: %v", err)
	}
	return habits, SourceRemote, nil
}

// ---------- HABIT LOGS ----------

// ToggleHabitLog flips a habit's completion for one date, local state first.
// The encrypted payload embeds the full logical state, so the remote side is
// a plain upsert with no read-modify-write window beyond the existence check.
func (s *Service) ToggleHabitLog(ctx context.Context, habitID, date string) (HabitLog, error) {
	logs, err := s.cache.HabitLogs()
	if err != nil {
		return HabitLog{}, err
	}
	idx := -1
	for i := range logs {
		if logs[i].HabitID == habitID && logs[i].Date == date {
			idx = i
			break
		}
	}
	var entry HabitLog
	if idx >= 0 {
		logs[idx].Completed = !logs[idx].Completed
		entry = logs[idx]
	} else {
		// Nothing local for this habit/date. A fresh device may still have
		// remote state to flip; otherwise the first toggle marks it done.
		entry = HabitLog{HabitID: habitID, Date: date, Completed: true}
		if prev, found := s.remoteHabitLog(ctx, habitID, date); found {
			entry.Completed = !prev.Completed
		}
		logs = append(logs, entry)
	}
	if err := s.cache.SaveHabitLogs(logs); err != nil {
		return HabitLog{}, err
	}
	return entry, s.PushHabitLog(ctx, entry)
}

// remoteHabitLog fetches and decrypts one remote log. Best-effort: any
// failure, including locked mode, reads as "no remote state".
func (s *Service) remoteHabitLog(ctx context.Context, habitID, date string) (HabitLog, bool) {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		return HabitLog{}, false
	}
	defer crypto.Zero(master)

	row, err := s.remote.GetHabitLogByDay(ctx, uid, gen.ForHabitDay(habitID, date))
	if err != nil {
		return HabitLog{}, false
	}
	var l HabitLog
	if err := crypto.DecryptJSON(master, row.Ciphertext, row.Nonce, &l); err != nil {
		s.logger.Printf("skipping undecryptable habit log row: %v", err)
		return HabitLog{}, false
	}
	return l, true
}

// PushHabitLog upserts one log's current state remotely. Also used by the
// sync reconciler, which must not re-toggle already-correct local state.
func (s *Service) PushHabitLog(ctx context.Context, entry HabitLog) error {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		return nil
	}
	defer crypto.Zero(master)

	ct, nonce, err := crypto.EncryptJSON(master, entry)
	if err != nil {
		return err
	}
	row := store.HabitLogRow{
		OwnerID:     uid,
		DayBucket:   gen.ForHabitDay(entry.HabitID, entry.Date),
		MonthBucket: gen.ForMonth(monthOf(entry.Date)),
		Ciphertext:  ct,
		Nonce:       nonce,
	}
	if err := s.remote.UpsertHabitLog(ctx, row); err != nil {
		return remoteErr("push habit log", err)
	}
	return nil
}

// LoadHabitLogsForMonth returns every log row of one month.
func (s *Service) LoadHabitLogsForMonth(ctx context.Context, yearMonth string) ([]HabitLog, Source, error) {
	uid, master, gen, ok := s.session(ctx)
	if !ok {
		logs, err := s.cachedLogsForMonth(yearMonth)
		return logs, SourceLocal, err
	}
	defer crypto.Zero(master)

	rows, err := s.remote.ListHabitLogsByMonth(ctx, uid, gen.ForMonth(yearMonth))
	if err != nil {
		s.logger.Printf("remote habit log read failed, serving cache: %v", err)
		logs, cerr := s.cachedLogsForMonth(yearMonth)
		return logs, SourceLocalFallback, cerr
	}

	logs := make([]HabitLog, 0, len(rows))
	for _, row := range rows {
		var l HabitLog
		if derr := crypto.DecryptJSON(master, row.Ciphertext, row.Nonce, &l); derr != nil {
			s.logger.Printf("skipping undecryptable habit log row: %v", derr)
			continue
		}
		logs = append(logs, l)
	}
	s.refreshCachedLogs(logs)
	return logs, SourceRemote, nil
}

func (s *Service) cachedLogsForMonth(yearMonth string) ([]HabitLog, error) {
	all, err := s.cache.HabitLogs()
	if err != nil {
		return nil, err
	}
	var logs []HabitLog
	for _, l := range all {
		if strings.HasPrefix(l.Date, yearMonth) {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (s *Service) refreshCachedLogs(logs []HabitLog) {
	if len(logs) == 0 {
		return
	}
	all, err := s.cache.HabitLogs()
	if err != nil {
		s.logger.Printf("cache refresh read failed: %v", err)
		return
	}
	type logKey struct{ habitID, date string }
	byKey := make(map[logKey]int, len(all))
	for i, l := range all {
		byKey[logKey{l.HabitID, l.Date}] = i
	}
	for _, l := range logs {
		if i, ok := byKey[logKey{l.HabitID, l.Date}]; ok {
			all[i] = l
		} else {
			all = append(all, l)
		}
	}
	if err := s.cache.SaveHabitLogs(all); err != nil {
		s.logger.Printf("cache refresh write failed: %v", err)
	}
}
