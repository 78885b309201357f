package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// FileKeystore is the fallback for headless hosts and tests: one 0600 file
// per item under a private directory. It offers filesystem-permission
// security only, not OS keychain security.
type FileKeystore struct{ dir string }

func NewFileKeystore(dir string) *FileKeystore {
	_ = os.MkdirAll(dir, 0700)
	return &FileKeystore{dir: dir}
}

func (f *FileKeystore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:16])+".item")
}

func (f *FileKeystore) SetItem(key, value string) error {
	return os.WriteFile(f.path(key), []byte(value), 0600)
}

func (f *FileKeystore) GetItem(key string) (string, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *FileKeystore) DeleteItem(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
