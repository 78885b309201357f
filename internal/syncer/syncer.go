// Package syncer pushes pre-existing local plaintext data to the cloud once
// a keyring is first established. Everything it sends goes through upserts,
// so re-running after a partial failure is harmless.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"journalvault/internal/content"
	"journalvault/internal/keyring"
)

type Reconciler struct {
	keys   *keyring.Keyring
	svc    *content.Service
	cache  content.Cache
	logger *log.Logger
}

func New(keys *keyring.Keyring, svc *content.Service, cache content.Cache) *Reconciler {
	return &Reconciler{
		keys:   keys,
		svc:    svc,
		cache:  cache,
		logger: log.New(os.Stdout, "[syncer] ", log.LstdFlags),
	}
}

// SyncLocalDataToCloud uploads all local habits, one aggregated save per
// distinct entry date, and every completed habit log. Incomplete logs are
// not pushed; "never done" does not deserve a remote row. Failures are
// collected, not fatal per item, and returned joined.
func (r *Reconciler) SyncLocalDataToCloud(ctx context.Context) error {
	if !r.keys.IsUnlocked() {
		return keyring.ErrLocked
	}

	var errs []error

	habits, err := r.cache.Habits()
	if err != nil {
		return err
	}
	if len(habits) > 0 {
		if err := r.svc.SaveHabits(ctx, habits); err != nil {
			errs = append(errs, fmt.Errorf("habits: %w", err))
		}
	}

	days, err := r.cache.DailyEntries()
	if err != nil {
		return err
	}
	for _, day := range days {
		if len(day.Entries) == 0 {
			continue
		}
		// One save per distinct date; each pushes the full aggregated day.
		if err := r.svc.SaveDay(ctx, day.Date); err != nil {
			errs = append(errs, fmt.Errorf("entries %s: %w", day.Date, err))
		}
	}

	logs, err := r.cache.HabitLogs()
	if err != nil {
		return err
	}
	for _, l := range logs {
		if !l.Completed {
			continue
		}
		if err := r.svc.PushHabitLog(ctx, l); err != nil {
			errs = append(errs, fmt.Errorf("habit log %s %s: %w", l.HabitID, l.Date, err))
		}
	}

	if len(errs) > 0 {
		r.logger.Printf("sync finished with %d failures", len(errs))
		return errors.Join(errs...)
	}
	return nil
}
