// Package keyring owns the master and bucket key lifecycle: setup, unlock,
// lock, cache-restore and wipe. It is the only writer of in-memory key
// state; everything else re-checks IsUnlocked at point of use.
package keyring

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"time"

	"golang.org/x/time/rate"

	"journalvault/internal/crypto"
	"journalvault/internal/identity"
	"journalvault/internal/keystore"
	"journalvault/internal/store"
)

const (
	cacheMasterKey = "journalvault.master_key"
	cacheBucketKey = "journalvault.bucket_key"
)

// Keyring cycles between two states: locked (no keys resident) and unlocked
// (master + bucket keys resident and mirrored into the secure keystore).
type Keyring struct {
	profiles store.ProfileStore
	ident    identity.Provider
	cache    keystore.Keystore
	limiter  *attemptLimiter
	logger   *log.Logger

	// nil while locked; non-nil 32-byte slices while unlocked.
	master []byte
	bucket []byte
}

func New(profiles store.ProfileStore, ident identity.Provider, cache keystore.Keystore) *Keyring {
	return &Keyring{
		profiles: profiles,
		ident:    ident,
		cache:    cache,
		limiter:  newAttemptLimiter(rate.Limit(float64(5)/time.Minute.Seconds()), 5, time.Hour),
		logger:   log.New(os.Stdout, "[keyring] ", log.LstdFlags),
	}
}

// Setup creates fresh master and bucket keys for a user with no key material
// yet, wraps both under a password-derived KEK and persists the wrapped
// record remotely. On success the keyring is unlocked and the raw keys are
// cached in the secure keystore.
func (k *Keyring) Setup(ctx context.Context, password string) error {
	uid, err := k.ident.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	_, err = k.profiles.GetKeyMaterial(ctx, uid)
	if err == nil {
		return ErrAlreadyConfigured
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	kdf := crypto.DefaultKDF()
	kek, err := crypto.DeriveKEK([]byte(password), kdf)
	if err != nil {
		return err
	}
	defer crypto.Zero32(&kek)

	master := crypto.NewKey()
	bucket := crypto.NewKey()

	wrappedMaster, masterNonce, err := crypto.Encrypt(kek[:], master)
	if err != nil {
		return err
	}
	wrappedBucket, bucketNonce, err := crypto.Encrypt(kek[:], bucket)
	if err != nil {
		return err
	}

	km := store.KeyMaterial{
		UserID:                uid,
		WrappedMasterKey:      wrappedMaster,
		WrappedMasterKeyNonce: masterNonce,
		WrappedBucketKey:      wrappedBucket,
		WrappedBucketKeyNonce: bucketNonce,
		KDF:                   kdf,
	}
	if err := k.profiles.PutKeyMaterial(ctx, km); err != nil {
		crypto.Zero(master)
		crypto.Zero(bucket)
		return err
	}

	k.install(master, bucket, true)
	return nil
}

// Unlock fetches the wrapped key material, re-derives the KEK from the
// supplied password and unwraps both keys. Records created before the key
// split carry no wrapped bucket key; those fall back to using the master
// key for bucketing as well.
func (k *Keyring) Unlock(ctx context.Context, password string) error {
	uid, err := k.ident.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if !k.limiter.allow(uid) {
		return ErrTooManyAttempts
	}

	km, err := k.profiles.GetKeyMaterial(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotConfigured
	}
	if err != nil {
		return err
	}

	kek, err := crypto.DeriveKEK([]byte(password), km.KDF)
	if err != nil {
		return err
	}
	defer crypto.Zero32(&kek)

	master, err := crypto.Decrypt(kek[:], km.WrappedMasterKey, km.WrappedMasterKeyNonce)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthentication) {
			return ErrIncorrectPassword
		}
		return err
	}

	var bucket []byte
	if len(km.WrappedBucketKey) > 0 {
		bucket, err = crypto.Decrypt(kek[:], km.WrappedBucketKey, km.WrappedBucketKeyNonce)
		if err != nil {
			crypto.Zero(master)
			if errors.Is(err, crypto.ErrAuthentication) {
				return ErrIncorrectPassword
			}
			return err
		}
	} else {
		// Pre-split account: no separate bucket key was ever wrapped.
		bucket = append([]byte(nil), master...)
	}

	k.install(master, bucket, true)
	return nil
}

// Lock wipes the resident keys. The secure keystore cache is deliberately
// left intact so TryRestoreFromCache can skip the password next launch.
func (k *Keyring) Lock() {
	k.wipe()
}

// TryRestoreFromCache loads cached keys from the secure keystore, if any.
// It reports whether the keyring ended up unlocked.
func (k *Keyring) TryRestoreFromCache() bool {
	masterHex, err := k.cache.GetItem(cacheMasterKey)
	if err != nil {
		if !errors.Is(err, keystore.ErrNotFound) {
			k.logger.Printf("keystore read failed: %v", err)
		}
		return false
	}
	bucketHex, err := k.cache.GetItem(cacheBucketKey)
	if err != nil {
		return false
	}
	master, err := hex.DecodeString(masterHex)
	if err != nil || len(master) != crypto.KeySize {
		return false
	}
	bucket, err := hex.DecodeString(bucketHex)
	if err != nil || len(bucket) != crypto.KeySize {
		crypto.Zero(master)
		return false
	}
	k.install(master, bucket, false)
	return true
}

// ClearAll wipes resident keys and deletes the keystore cache. Used on
// sign-out; the remote wrapped material stays so the password still works.
func (k *Keyring) ClearAll() {
	k.wipe()
	if err := k.cache.DeleteItem(cacheMasterKey); err != nil {
		k.logger.Printf("keystore delete failed: %v", err)
	}
	if err := k.cache.DeleteItem(cacheBucketKey); err != nil {
		k.logger.Printf("keystore delete failed: %v", err)
	}
}

// ResetEncryption deletes the remote wrapped key material and clears local
// state. After this the password is gone for good and all ciphertext is
// unreadable; there is no recovery path.
func (k *Keyring) ResetEncryption(ctx context.Context) error {
	uid, err := k.ident.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if err := k.profiles.DeleteKeyMaterial(ctx, uid); err != nil {
		return err
	}
	k.ClearAll()
	return nil
}

func (k *Keyring) IsUnlocked() bool {
	return k.master != nil
}

// MasterKey returns a copy of the resident master key.
func (k *Keyring) MasterKey() ([]byte, error) {
	if k.master == nil {
		return nil, ErrLocked
	}
	return append([]byte(nil), k.master...), nil
}

// BucketKey returns a copy of the resident bucket key.
func (k *Keyring) BucketKey() ([]byte, error) {
	if k.bucket == nil {
		return nil, ErrLocked
	}
	return append([]byte(nil), k.bucket...), nil
}

func (k *Keyring) install(master, bucket []byte, persist bool) {
	k.wipe()
	k.master = master
	k.bucket = bucket
	if err := crypto.LockMemory(k.master); err != nil {
		k.logger.Printf("mlock master key: %v", err)
	}
	if err := crypto.LockMemory(k.bucket); err != nil {
		k.logger.Printf("mlock bucket key: %v", err)
	}
	if !persist {
		return
	}
	if err := k.cache.SetItem(cacheMasterKey, hex.EncodeToString(master)); err != nil {
		k.logger.Printf("keystore write failed: %v", err)
	}
	if err := k.cache.SetItem(cacheBucketKey, hex.EncodeToString(bucket)); err != nil {
		k.logger.Printf("keystore write failed: %v", err)
	}
}

func (k *Keyring) wipe() {
	if k.master != nil {
		_ = crypto.UnlockMemory(k.master)
		crypto.Zero(k.master)
		k.master = nil
	}
	if k.bucket != nil {
		_ = crypto.UnlockMemory(k.bucket)
		crypto.Zero(k.bucket)
		k.bucket = nil
	}
}
