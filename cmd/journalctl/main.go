// journalctl is the reference client for the encrypted journal sync layer:
// it drives keyring setup/unlock, saves and loads encrypted entries, habits
// and habit logs, and runs the one-time local-to-cloud sync.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"journalvault/internal/config"
	"journalvault/internal/content"
	"journalvault/internal/identity"
	"journalvault/internal/keyring"
	"journalvault/internal/keystore"
	"journalvault/internal/localcache"
	"journalvault/internal/platform"
	"journalvault/internal/store"
	"journalvault/internal/syncer"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "journalctl",
	Short: "End-to-end-encrypted journal and habit sync",
	Long: `journalctl manages the encrypted sync layer for journal entries,
habits and habit completion logs. Content is encrypted on this device
before it reaches the remote store; without the password (or this
device's key cache) the remote data is unreadable, including by the
server. A forgotten password is unrecoverable by design.`,
	SilenceUsage: true,
}

func main() {
	if err := platform.DisableCoreDumps(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not disable core dumps: %v\n", err)
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.AddCommand(
		setupCmd(),
		unlockCmd(),
		lockCmd(),
		restoreCmd(),
		statusCmd(),
		signoutCmd(),
		resetCmd(),
		accountCmd(),
		syncCmd(),
		entryCmd(),
		habitCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	mongo  *store.MongoStore // nil in local-only mode
	remote store.Store
	cache  *localcache.FileCache
	keys   *keyring.Keyring
	svc    *content.Service
	rec    *syncer.Reconciler
	ident  identity.Provider
}

// newApp wires the full stack from config. Without a Mongo URI it runs
// local-only against an in-process store stub: content stays on disk and
// keyring state does not survive the process.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	var ident identity.Provider
	if cfg.UserID != "" {
		ident = identity.Static(cfg.UserID)
	} else {
		ident = identity.NewTokenProvider(cfg.SessionToken)
	}

	a := &app{cfg: cfg, cache: localcache.New(cfg.CacheDir), ident: ident}

	if cfg.MongoURI != "" {
		a.mongo, err = store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect remote store: %w", err)
		}
		a.remote = a.mongo
	} else {
		a.remote = store.NewMemoryStore()
	}

	a.keys = keyring.New(a.remote, ident, openKeystore(cfg))
	a.svc = content.NewService(a.keys, a.remote, a.cache, ident)
	a.rec = syncer.New(a.keys, a.svc, a.cache)

	// Cross-restart convenience: pick up cached keys without a password.
	a.keys.TryRestoreFromCache()
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	if a.mongo != nil {
		_ = a.mongo.Close(ctx)
	}
}

func openKeystore(cfg config.Config) keystore.Keystore {
	if cfg.KeystoreBackend == "system" {
		ks, err := keystore.OpenSystem(cfg.ServiceName)
		if err == nil {
			return ks
		}
		fmt.Fprintf(os.Stderr, "system keystore unavailable (%v), using file fallback\n", err)
	}
	return keystore.NewFileKeystore(cfg.KeystoreDir)
}
