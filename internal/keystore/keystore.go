// Package keystore abstracts the OS-backed secure store used to cache
// keyring material between launches. Compromise of this store is equivalent
// to compromise of the password, so it must be backed by OS-level security
// wherever the platform provides one.
package keystore

import "errors"

var ErrNotFound = errors.New("keystore: item not found")

type Keystore interface {
	SetItem(key, value string) error
	// GetItem returns ErrNotFound when the key has never been set or was
	// deleted; any other error means the backing store is unavailable.
	GetItem(key string) (string, error)
	DeleteItem(key string) error
}
