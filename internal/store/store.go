// Package store defines the remote persistence contract for the sync layer.
// Every row is scoped to an owner id; content rows carry only ciphertext,
// nonces and opaque bucket identifiers, never plaintext or dates.
package store

import (
	"context"
	"errors"

	"journalvault/internal/crypto"
)

var ErrNotFound = errors.New("store: not found")

// KeyMaterial is the one-per-user wrapped key record. Both keys are sealed
// by a KEK derived from the user's password and the stored KDF parameters.
// WrappedBucketKey is empty for accounts created before the key split; the
// keyring falls back to the master key for bucketing on those.
type KeyMaterial struct {
	UserID                string           `bson:"_id" json:"user_id"`
	WrappedMasterKey      []byte           `bson:"wrapped_master_key" json:"wrapped_master_key"`
	WrappedMasterKeyNonce []byte           `bson:"wrapped_master_key_nonce" json:"wrapped_master_key_nonce"`
	WrappedBucketKey      []byte           `bson:"wrapped_bucket_key,omitempty" json:"wrapped_bucket_key,omitempty"`
	WrappedBucketKeyNonce []byte           `bson:"wrapped_bucket_key_nonce,omitempty" json:"wrapped_bucket_key_nonce,omitempty"`
	KDF                   crypto.KDFParams `bson:"kdf" json:"kdf"`
}

// EntryRow holds all of one owner's journal entries for one calendar day,
// addressed by the day bucket. Unique per (owner_id, day_bucket).
type EntryRow struct {
	OwnerID     string `bson:"owner_id"`
	DayBucket   string `bson:"day_bucket"`
	MonthBucket string `bson:"month_bucket"`
	Ciphertext  []byte `bson:"ciphertext"`
	Nonce       []byte `bson:"nonce"`
}

// HabitRow is one encrypted habit definition. Habit lists are small, so
// saves replace the whole owner-scoped collection.
type HabitRow struct {
	OwnerID    string `bson:"owner_id"`
	Ciphertext []byte `bson:"ciphertext"`
	Nonce      []byte `bson:"nonce"`
}

// HabitLogRow is one habit's completion state for one day. The day bucket
// encodes habit id and date together. Unique per (owner_id, day_bucket).
type HabitLogRow struct {
	OwnerID     string `bson:"owner_id"`
	DayBucket   string `bson:"day_bucket"`
	MonthBucket string `bson:"month_bucket"`
	Ciphertext  []byte `bson:"ciphertext"`
	Nonce       []byte `bson:"nonce"`
}

// Account is the plaintext account row. It carries no encrypted material;
// it exists so the CLI can show who is signed in.
type Account struct {
	UserID   string `bson:"_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
}

type ProfileStore interface {
	GetKeyMaterial(ctx context.Context, userID string) (KeyMaterial, error)
	PutKeyMaterial(ctx context.Context, km KeyMaterial) error
	DeleteKeyMaterial(ctx context.Context, userID string) error
}

type EntryStore interface {
	UpsertEntry(ctx context.Context, row EntryRow) error
	GetEntryByDay(ctx context.Context, ownerID, dayBucket string) (EntryRow, error)
	ListEntriesByMonth(ctx context.Context, ownerID, monthBucket string) ([]EntryRow, error)
}

type HabitStore interface {
	ReplaceHabits(ctx context.Context, ownerID string, rows []HabitRow) error
	ListHabits(ctx context.Context, ownerID string) ([]HabitRow, error)
}

type HabitLogStore interface {
	UpsertHabitLog(ctx context.Context, row HabitLogRow) error
	GetHabitLogByDay(ctx context.Context, ownerID, dayBucket string) (HabitLogRow, error)
	ListHabitLogsByMonth(ctx context.Context, ownerID, monthBucket string) ([]HabitLogRow, error)
}

type AccountStore interface {
	GetAccount(ctx context.Context, userID string) (Account, error)
	PutAccount(ctx context.Context, acct Account) error
}

// Store is the full remote surface consumed by the keyring, façade and syncer.
type Store interface {
	ProfileStore
	EntryStore
	HabitStore
	HabitLogStore
	AccountStore
}
