package content

// Dates are calendar strings (YYYY-MM-DD) and months YYYY-MM throughout;
// timestamps are pre-stringified RFC 3339 so payloads stay plain JSON.

// JournalEntry is one journal item within a day.
type JournalEntry struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
}

// DailyEntry aggregates every entry of one calendar day. One remote row per
// day keeps the row count bounded and lets edits merge locally before a
// single re-encryption.
type DailyEntry struct {
	Date    string         `json:"date"`
	Entries []JournalEntry `json:"entries"`
}

// Habit is a habit definition. Habits carry no bucket; the remote habit
// collection is owner-scoped and replaced wholesale on save.
type Habit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// HabitLog is one habit's completion state on one date.
type HabitLog struct {
	HabitID   string `json:"habitId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// Source tells a caller where loaded data came from, so "no entries" can be
// distinguished from "the remote store was unreachable".
type Source int

const (
	// SourceLocal: the keyring was locked; only the local cache was read.
	SourceLocal Source = iota
	// SourceRemote: decrypted from the remote store.
	SourceRemote
	// SourceLocalFallback: the remote read failed; cached data returned.
	SourceLocalFallback
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	case SourceLocalFallback:
		return "local-fallback"
	default:
		return "unknown"
	}
}
