// Package localcache is the plaintext key-value store behind the local-first
// guarantee. It lives in the app's private storage; it is not encrypted, by
// design, so content stays reachable while the keyring is locked.
package localcache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"journalvault/internal/content"
)

const (
	fileHabits    = "habits.json"
	fileEntries   = "daily_entries.json"
	fileHabitLogs = "habit_logs.json"
)

type FileCache struct{ dir string }

func New(dir string) *FileCache {
	_ = os.MkdirAll(dir, 0700)
	return &FileCache{dir: dir}
}

func (c *FileCache) Habits() ([]content.Habit, error) {
	var habits []content.Habit
	err := c.read(fileHabits, &habits)
	return habits, err
}

func (c *FileCache) SaveHabits(habits []content.Habit) error {
	return c.write(fileHabits, habits)
}

func (c *FileCache) DailyEntries() ([]content.DailyEntry, error) {
	var entries []content.DailyEntry
	err := c.read(fileEntries, &entries)
	return entries, err
}

func (c *FileCache) SaveDailyEntries(entries []content.DailyEntry) error {
	return c.write(fileEntries, entries)
}

// DailyEntriesForDate returns the aggregated day, or an empty day when the
// date has never been written.
func (c *FileCache) DailyEntriesForDate(date string) (content.DailyEntry, error) {
	all, err := c.DailyEntries()
	if err != nil {
		return content.DailyEntry{}, err
	}
	for _, d := range all {
		if d.Date == date {
			return d, nil
		}
	}
	return content.DailyEntry{Date: date}, nil
}

func (c *FileCache) HabitLogs() ([]content.HabitLog, error) {
	var logs []content.HabitLog
	err := c.read(fileHabitLogs, &logs)
	return logs, err
}

func (c *FileCache) SaveHabitLogs(logs []content.HabitLog) error {
	return c.write(fileHabitLogs, logs)
}

func (c *FileCache) ClearAll() error {
	for _, name := range []string{fileHabits, fileEntries, fileHabitLogs} {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (c *FileCache) read(name string, out any) error {
	b, err := os.ReadFile(filepath.Join(c.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (c *FileCache) write(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, name), b, 0600)
}

var _ content.Cache = (*FileCache)(nil)
