package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randBytes(t, 32)
	pt := randBytes(t, 4096)
	ct, nonce, err := Encrypt(key, pt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(nonce) != NonceSize {
		t.Fatalf("nonce size = %d, want %d", len(nonce), NonceSize)
	}
	out, err := Decrypt(key, ct, nonce)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, out) {
		t.Fatal("plaintext mismatch")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key := randBytes(t, 32)
	ct, nonce, err := Encrypt(key, []byte("secret-data"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	wrong := randBytes(t, 32)
	if _, err := Decrypt(wrong, ct, nonce); err != ErrAuthentication {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestDecryptTamper(t *testing.T) {
	key := randBytes(t, 32)
	ct, nonce, err := Encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	mut := append([]byte(nil), ct...)
	mut[0] ^= 0xFF
	if _, err := Decrypt(key, mut, nonce); err != ErrAuthentication {
		t.Fatalf("expected ErrAuthentication after tamper, got %v", err)
	}
}

func TestDecryptBadNonceLength(t *testing.T) {
	key := randBytes(t, 32)
	ct, nonce, err := Encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(key, ct, nonce[:8]); err == nil {
		t.Fatal("expected error for short nonce")
	}
}

func TestNonceUniqueness(t *testing.T) {
	key := randBytes(t, 32)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		_, nonce, err := Encrypt(key, []byte("x"))
		if err != nil {
			t.Fatalf("encrypt %d: %v", i, err)
		}
		h := hex.EncodeToString(nonce)
		if _, dup := seen[h]; dup {
			t.Fatalf("nonce repeated after %d calls", i)
		}
		seen[h] = struct{}{}
	}
}

func TestEncryptJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date    string   `json:"date"`
		Texts   []string `json:"texts"`
		Count   int      `json:"count"`
		Flag    bool     `json:"flag"`
		Nothing *string  `json:"nothing"`
	}
	key := randBytes(t, 32)
	in := payload{Date: "2026-01-20", Texts: []string{"a", "b"}, Count: 3, Flag: true}
	ct, nonce, err := EncryptJSON(key, in)
	if err != nil {
		t.Fatalf("encryptJSON: %v", err)
	}
	var out payload
	if err := DecryptJSON(key, ct, nonce, &out); err != nil {
		t.Fatalf("decryptJSON: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip mismatch (-in +out):\n%s", diff)
	}
}

func TestDeriveKEKDeterministic(t *testing.T) {
	params := KDFParams{N: 1024, R: 8, P: 1, Salt: randBytes(t, 32)}
	k1, err := DeriveKEK([]byte("CorrectHorseBattery9"), params)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := DeriveKEK([]byte("CorrectHorseBattery9"), params)
	if err != nil {
		t.Fatalf("derive again: %v", err)
	}
	if k1 != k2 {
		t.Fatal("same password and params produced different keys")
	}
	k3, err := DeriveKEK([]byte("WrongPassword"), params)
	if err != nil {
		t.Fatalf("derive wrong: %v", err)
	}
	if k1 == k3 {
		t.Fatal("different passwords produced the same key")
	}
}

func TestDeriveKEKRequiresSalt(t *testing.T) {
	if _, err := DeriveKEK([]byte("pw"), KDFParams{N: 1024, R: 8, P: 1}); err == nil {
		t.Fatal("expected error for empty salt")
	}
}

func FuzzEncryptDecrypt(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte(""))
	f.Fuzz(func(t *testing.T, pt []byte) {
		key := make([]byte, 32)
		rand.Read(key)
		ct, nonce, err := Encrypt(key, pt)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := Decrypt(key, ct, nonce)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(pt, got) {
			t.Fatal("roundtrip mismatch")
		}
		if len(ct) == 0 {
			return
		}
		mut := append([]byte(nil), ct...)
		mut[len(pt)%len(mut)] ^= 0xFF
		if _, err := Decrypt(key, mut, nonce); err == nil {
			t.Fatal("mutated ciphertext decrypted")
		}
	})
}
