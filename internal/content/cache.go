package content

// Cache is the plaintext local store every write hits before any network
// attempt. It is the offline source of truth while the keyring is locked.
type Cache interface {
	Habits() ([]Habit, error)
	SaveHabits(habits []Habit) error

	DailyEntries() ([]DailyEntry, error)
	SaveDailyEntries(entries []DailyEntry) error
	DailyEntriesForDate(date string) (DailyEntry, error)

	HabitLogs() ([]HabitLog, error)
	SaveHabitLogs(logs []HabitLog) error

	ClearAll() error
}
