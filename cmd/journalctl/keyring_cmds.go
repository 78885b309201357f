package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"journalvault/internal/keyring"
	"journalvault/internal/store"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create encryption keys for this account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			pw, err := readPassword("Choose an encryption password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Repeat password: ")
			if err != nil {
				return err
			}
			if pw != confirm {
				return errors.New("passwords do not match")
			}

			if err := withSpinner("setting up encryption...", func() error {
				return a.keys.Setup(ctx, pw)
			}); err != nil {
				if errors.Is(err, keyring.ErrAlreadyConfigured) {
					return errors.New("encryption is already configured for this account; use unlock")
				}
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "encryption configured and unlocked")

			// First setup: push any pre-existing local data to the cloud.
			if err := withSpinner("uploading existing local data...", func() error {
				return a.rec.SyncLocalDataToCloud(ctx)
			}); err != nil {
				warnColor.Fprintf(cmd.OutOrStdout(), "initial sync incomplete: %v\n", err)
			}
			return nil
		},
	}
}

func unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the keyring with your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if a.keys.IsUnlocked() {
				okColor.Fprintln(cmd.OutOrStdout(), "already unlocked (restored from device cache)")
				return nil
			}
			pw, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			if err := withSpinner("unlocking...", func() error {
				return a.keys.Unlock(ctx, pw)
			}); err != nil {
				switch {
				case errors.Is(err, keyring.ErrIncorrectPassword):
					return errors.New("couldn't unlock: check your password")
				case errors.Is(err, keyring.ErrNotConfigured):
					return errors.New("encryption is not set up for this account; run setup")
				default:
					return err
				}
			}
			okColor.Fprintln(cmd.OutOrStdout(), "unlocked")
			return nil
		},
	}
}

func lockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Wipe keys from memory (device cache is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			a.keys.Lock()
			fmt.Fprintln(cmd.OutOrStdout(), "locked")
			return nil
		},
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore keys from the device's secure cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			if a.keys.IsUnlocked() {
				okColor.Fprintln(cmd.OutOrStdout(), "restored from device cache")
				return nil
			}
			return errors.New("no cached keys on this device; unlock with your password")
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show keyring and sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out := cmd.OutOrStdout()
			if uid, err := a.ident.CurrentUserID(ctx); err == nil {
				fmt.Fprintf(out, "user:    %s\n", uid)
				if acct, err := a.remote.GetAccount(ctx, uid); err == nil {
					fmt.Fprintf(out, "account: %s <%s>\n", acct.Username, acct.Email)
				}
			} else {
				warnColor.Fprintln(out, "user:    not signed in (local-only)")
			}
			if a.keys.IsUnlocked() {
				okColor.Fprintln(out, "keyring: unlocked")
			} else {
				warnColor.Fprintln(out, "keyring: locked")
			}
			if a.mongo != nil {
				fmt.Fprintf(out, "remote:  %s/%s\n", a.cfg.MongoURI, a.cfg.MongoDB)
			} else {
				warnColor.Fprintln(out, "remote:  none configured")
			}
			return nil
		},
	}
}

func signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Wipe keys, device key cache and local content",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			a.keys.ClearAll()
			if err := a.cache.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out; cloud data stays unlockable with your password")
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-encryption",
		Short: "Delete the account's key material (IRREVERSIBLE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing without --yes: this permanently destroys access to all encrypted cloud data")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			if err := a.keys.ResetEncryption(ctx); err != nil {
				return err
			}
			errColor.Fprintln(cmd.OutOrStdout(), "key material deleted; existing cloud ciphertext is now unreadable")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm irreversible reset")
	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the plaintext account profile",
	}
	var email string
	set := &cobra.Command{
		Use:   "set <username>",
		Short: "Set the account's display profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			uid, err := a.ident.CurrentUserID(ctx)
			if err != nil {
				return errors.New("not signed in")
			}
			acct := store.Account{UserID: uid, Username: args[0], Email: email}
			if err := a.remote.PutAccount(ctx, acct); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "account profile updated")
			return nil
		},
	}
	set.Flags().StringVar(&email, "email", "", "contact email")
	cmd.AddCommand(set)
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload local-only data to the cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			if err := withSpinner("syncing...", func() error {
				return a.rec.SyncLocalDataToCloud(ctx)
			}); err != nil {
				if errors.Is(err, keyring.ErrLocked) {
					return errors.New("keyring is locked; unlock first")
				}
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "sync complete")
			return nil
		},
	}
}
