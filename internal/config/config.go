// Package config loads the client configuration from a YAML file with
// environment overrides. Every field has a usable default so a bare
// `journalctl` run works local-only out of the box.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	// CacheDir holds the plaintext local-first cache.
	CacheDir string `yaml:"cache_dir"`

	// KeystoreBackend selects where cached keys live: "system" for the OS
	// credential manager, "file" for the 0600-file fallback.
	KeystoreBackend string `yaml:"keystore_backend"`
	KeystoreDir     string `yaml:"keystore_dir"`
	ServiceName     string `yaml:"service_name"`

	// SessionToken is the auth backend's JWT; its subject is the user id.
	// UserID overrides it for local-only and development use.
	SessionToken string `yaml:"session_token"`
	UserID       string `yaml:"user_id"`
}

func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}
	c.applyEnv()
	c.setDefaults()
	return c, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.MongoURI, "JOURNALVAULT_MONGO_URI")
	override(&c.MongoDB, "JOURNALVAULT_MONGO_DB")
	override(&c.CacheDir, "JOURNALVAULT_CACHE_DIR")
	override(&c.KeystoreBackend, "JOURNALVAULT_KEYSTORE_BACKEND")
	override(&c.KeystoreDir, "JOURNALVAULT_KEYSTORE_DIR")
	override(&c.SessionToken, "JOURNALVAULT_SESSION_TOKEN")
	override(&c.UserID, "JOURNALVAULT_USER_ID")
}

func (c *Config) setDefaults() {
	base := baseDir()
	if c.MongoDB == "" {
		c.MongoDB = "journalvault"
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(base, "cache")
	}
	if c.KeystoreBackend == "" {
		c.KeystoreBackend = "system"
	}
	if c.KeystoreDir == "" {
		c.KeystoreDir = filepath.Join(base, "keystore")
	}
	if c.ServiceName == "" {
		c.ServiceName = "journalvault"
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".journalvault"
	}
	return filepath.Join(home, ".journalvault")
}
