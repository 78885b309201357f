package keyring

import (
	"bytes"
	"context"
	"testing"

	"journalvault/internal/crypto"
	"journalvault/internal/identity"
	"journalvault/internal/keystore"
	"journalvault/internal/store"
)

func newTestKeyring(t *testing.T) (*Keyring, *store.MemoryStore) {
	t.Helper()
	remote := store.NewMemoryStore()
	kr := New(remote, identity.Static("user-1"), keystore.NewFileKeystore(t.TempDir()))
	return kr, remote
}

func TestSetupUnlockCycle(t *testing.T) {
	ctx := context.Background()
	kr, _ := newTestKeyring(t)

	if err := kr.Setup(ctx, "CorrectHorseBattery9"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !kr.IsUnlocked() {
		t.Fatal("keyring should be unlocked after setup")
	}
	master1, err := kr.MasterKey()
	if err != nil {
		t.Fatalf("master key: %v", err)
	}
	bucket1, err := kr.BucketKey()
	if err != nil {
		t.Fatalf("bucket key: %v", err)
	}
	if len(master1) != 32 || len(bucket1) != 32 {
		t.Fatalf("key sizes = %d/%d, want 32/32", len(master1), len(bucket1))
	}
	if bytes.Equal(master1, bucket1) {
		t.Fatal("master and bucket keys must be independent")
	}

	kr.Lock()
	if kr.IsUnlocked() {
		t.Fatal("keyring should be locked after Lock")
	}
	if _, err := kr.MasterKey(); err != ErrLocked {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := kr.Unlock(ctx, "CorrectHorseBattery9"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	master2, _ := kr.MasterKey()
	bucket2, _ := kr.BucketKey()
	if !bytes.Equal(master1, master2) {
		t.Fatal("unlock restored a different master key")
	}
	if !bytes.Equal(bucket1, bucket2) {
		t.Fatal("unlock restored a different bucket key")
	}
}

func TestSetupStoresScryptParams(t *testing.T) {
	ctx := context.Background()
	kr, remote := newTestKeyring(t)
	if err := kr.Setup(ctx, "CorrectHorseBattery9"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	km, err := remote.GetKeyMaterial(ctx, "user-1")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if km.KDF.N != 32768 || km.KDF.R != 8 || km.KDF.P != 1 {
		t.Fatalf("kdf params = %+v, want N=32768 r=8 p=1", km.KDF)
	}
	if len(km.KDF.Salt) != 32 {
		t.Fatalf("salt length = %d, want 32", len(km.KDF.Salt))
	}
}

func TestUnlockWrongPassword(t *testing.T) {
	ctx := context.Background()
	kr, _ := newTestKeyring(t)
	if err := kr.Setup(ctx, "CorrectHorseBattery9"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	kr.Lock()
	if err := kr.Unlock(ctx, "WrongPassword"); err != ErrIncorrectPassword {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if kr.IsUnlocked() {
		t.Fatal("keyring must stay locked after a failed unlock")
	}
}

func TestSetupTwiceFails(t *testing.T) {
	ctx := context.Background()
	kr, _ := newTestKeyring(t)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := kr.Setup(ctx, "pw"); err != ErrAlreadyConfigured {
		t.Fatalf("expected ErrAlreadyConfigured, got %v", err)
	}
}

func TestUnlockWithoutSetup(t *testing.T) {
	ctx := context.Background()
	kr, _ := newTestKeyring(t)
	if err := kr.Unlock(ctx, "pw"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestUnlockUnauthenticated(t *testing.T) {
	remote := store.NewMemoryStore()
	kr := New(remote, identity.Static(""), keystore.NewFileKeystore(t.TempDir()))
	if err := kr.Unlock(context.Background(), "pw"); err != identity.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRestoreFromCache(t *testing.T) {
	ctx := context.Background()
	remote := store.NewMemoryStore()
	cache := keystore.NewFileKeystore(t.TempDir())
	kr := New(remote, identity.Static("user-1"), cache)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	master, _ := kr.MasterKey()
	kr.Lock()

	// A fresh keyring over the same keystore restores without a password.
	kr2 := New(remote, identity.Static("user-1"), cache)
	if !kr2.TryRestoreFromCache() {
		t.Fatal("expected cache restore to succeed")
	}
	got, err := kr2.MasterKey()
	if err != nil {
		t.Fatalf("master key: %v", err)
	}
	if !bytes.Equal(master, got) {
		t.Fatal("cache restored a different master key")
	}
}

func TestRestoreFromEmptyCache(t *testing.T) {
	kr, _ := newTestKeyring(t)
	if kr.TryRestoreFromCache() {
		t.Fatal("restore from empty cache should fail")
	}
	if kr.IsUnlocked() {
		t.Fatal("keyring must stay locked")
	}
}

func TestClearAllRemovesCache(t *testing.T) {
	ctx := context.Background()
	remote := store.NewMemoryStore()
	cache := keystore.NewFileKeystore(t.TempDir())
	kr := New(remote, identity.Static("user-1"), cache)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	kr.ClearAll()
	if kr.IsUnlocked() {
		t.Fatal("keyring should be locked after ClearAll")
	}
	kr2 := New(remote, identity.Static("user-1"), cache)
	if kr2.TryRestoreFromCache() {
		t.Fatal("cache should be gone after ClearAll")
	}
	// The remote wrapped material survives sign-out.
	if err := kr2.Unlock(ctx, "pw"); err != nil {
		t.Fatalf("unlock after ClearAll: %v", err)
	}
}

func TestLegacyMaterialWithoutBucketKey(t *testing.T) {
	ctx := context.Background()
	remote := store.NewMemoryStore()
	cache := keystore.NewFileKeystore(t.TempDir())
	kr := New(remote, identity.Static("user-1"), cache)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	// Strip the wrapped bucket key to simulate a pre-split record.
	km, err := remote.GetKeyMaterial(ctx, "user-1")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	km.WrappedBucketKey = nil
	km.WrappedBucketKeyNonce = nil
	if err := remote.PutKeyMaterial(ctx, km); err != nil {
		t.Fatalf("put material: %v", err)
	}

	kr2 := New(remote, identity.Static("user-1"), keystore.NewFileKeystore(t.TempDir()))
	if err := kr2.Unlock(ctx, "pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	master, _ := kr2.MasterKey()
	bucket, _ := kr2.BucketKey()
	if !bytes.Equal(master, bucket) {
		t.Fatal("legacy fallback should reuse the master key for bucketing")
	}
}

func TestResetEncryptionDeletesRemoteMaterial(t *testing.T) {
	ctx := context.Background()
	kr, remote := newTestKeyring(t)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := kr.ResetEncryption(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := remote.GetKeyMaterial(ctx, "user-1"); err != store.ErrNotFound {
		t.Fatalf("expected material gone, got %v", err)
	}
	if err := kr.Unlock(ctx, "pw"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured after reset, got %v", err)
	}
}

func TestUnlockThrottled(t *testing.T) {
	ctx := context.Background()
	kr, _ := newTestKeyring(t)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	kr.Lock()
	var throttled bool
	for i := 0; i < 20; i++ {
		err := kr.Unlock(ctx, "WrongPassword")
		if err == ErrTooManyAttempts {
			throttled = true
			break
		}
		if err != ErrIncorrectPassword {
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if !throttled {
		t.Fatal("expected the limiter to reject a burst of attempts")
	}
}

func TestWrappedKeysDifferFromRawKeys(t *testing.T) {
	ctx := context.Background()
	kr, remote := newTestKeyring(t)
	if err := kr.Setup(ctx, "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	master, _ := kr.MasterKey()
	km, _ := remote.GetKeyMaterial(ctx, "user-1")
	if bytes.Contains(km.WrappedMasterKey, master) {
		t.Fatal("wrapped material leaks the raw master key")
	}
	if len(km.WrappedMasterKeyNonce) != crypto.NonceSize {
		t.Fatalf("nonce length = %d, want %d", len(km.WrappedMasterKeyNonce), crypto.NonceSize)
	}
}
