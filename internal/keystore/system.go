package keystore

import (
	"errors"

	"github.com/99designs/keyring"
)

// SystemKeystore stores items in the platform credential manager (macOS
// Keychain, Secret Service, wincred) via 99designs/keyring.
type SystemKeystore struct {
	ring keyring.Keyring
}

func OpenSystem(serviceName string) (*SystemKeystore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, err
	}
	return &SystemKeystore{ring: ring}, nil
}

func (s *SystemKeystore) SetItem(key, value string) error {
	return s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
}

func (s *SystemKeystore) GetItem(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *SystemKeystore) DeleteItem(key string) error {
	err := s.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
