package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/scrypt"
)

// KDFParams are the scrypt cost parameters stored alongside wrapped key
// material so old accounts keep unlocking after the defaults change.
type KDFParams struct {
	N    int    `json:"n" bson:"n"`
	R    int    `json:"r" bson:"r"`
	P    int    `json:"p" bson:"p"`
	Salt []byte `json:"salt" bson:"salt"`
}

func DefaultKDF() KDFParams {
	return KDFParams{N: 32768, R: 8, P: 1, Salt: NewSalt()}
}

// DeriveKEK stretches a password into a 256-bit key-encryption key.
// Deterministic for a given password and parameter set.
func DeriveKEK(password []byte, p KDFParams) (kek [32]byte, err error) {
	if len(p.Salt) == 0 {
		return kek, errors.New("crypto: empty KDF salt")
	}
	key, err := scrypt.Key(password, p.Salt, p.N, p.R, p.P, 32)
	if err != nil {
		return kek, err
	}
	copy(kek[:], key)
	Zero(key)
	return kek, nil
}

func NewSalt() []byte {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		panic(err) // the platform CSPRNG is gone; nothing sensible to do
	}
	return salt
}

// NewKey returns a fresh random 256-bit content key.
func NewKey() []byte {
	return NewSalt()
}
