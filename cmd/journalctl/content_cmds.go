package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"journalvault/internal/content"
)

func entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage journal entries",
	}
	cmd.AddCommand(entryAddCmd(), entryListCmd())
	return cmd
}

func entryAddCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			entry := content.JournalEntry{
				ID:        newID(),
				Text:      args[0],
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			}
			err = a.svc.SaveEntry(ctx, date, entry)
			if errors.Is(err, content.ErrRemoteUnavailable) {
				warnColor.Fprintln(cmd.OutOrStdout(), "saved locally; will sync when online")
				return nil
			}
			if err != nil {
				return err
			}
			if a.keys.IsUnlocked() {
				okColor.Fprintln(cmd.OutOrStdout(), "saved and synced")
			} else {
				warnColor.Fprintln(cmd.OutOrStdout(), "saved locally (keyring locked)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "entry date (YYYY-MM-DD)")
	return cmd
}

func entryListCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			days, src, err := a.svc.LoadEntriesForMonth(ctx, month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if src != content.SourceRemote {
				warnColor.Fprintf(out, "(served from %s)\n", src)
			}
			for _, day := range days {
				fmt.Fprintf(out, "%s\n", day.Date)
				for _, e := range day.Entries {
					fmt.Fprintf(out, "  %s  %s\n", e.CreatedAt, e.Text)
				}
			}
			if len(days) == 0 {
				fmt.Fprintln(out, "no entries")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", thisMonth(), "month (YYYY-MM)")
	return cmd
}

func habitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits and completion logs",
	}
	cmd.AddCommand(habitAddCmd(), habitListCmd(), habitToggleCmd())
	return cmd
}

func habitAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			habits, _, err := a.svc.LoadHabits(ctx)
			if err != nil {
				return err
			}
			habits = append(habits, content.Habit{
				ID:        newID(),
				Name:      args[0],
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			})
			err = a.svc.SaveHabits(ctx, habits)
			if errors.Is(err, content.ErrRemoteUnavailable) {
				warnColor.Fprintln(cmd.OutOrStdout(), "saved locally; will sync when online")
				return nil
			}
			return err
		},
	}
}

func habitListCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits with this month's completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			habits, _, err := a.svc.LoadHabits(ctx)
			if err != nil {
				return err
			}
			logs, _, err := a.svc.LoadHabitLogsForMonth(ctx, month)
			if err != nil {
				return err
			}
			done := map[string]int{}
			for _, l := range logs {
				if l.Completed {
					done[l.HabitID]++
				}
			}
			out := cmd.OutOrStdout()
			for _, h := range habits {
				fmt.Fprintf(out, "%-12s %s  (%d done in %s)\n", h.ID, h.Name, done[h.ID], month)
			}
			if len(habits) == 0 {
				fmt.Fprintln(out, "no habits")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", thisMonth(), "month (YYYY-MM)")
	return cmd
}

func habitToggleCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <habit-id>",
		Short: "Toggle a habit's completion for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			entry, err := a.svc.ToggleHabitLog(ctx, args[0], date)
			if err != nil && !errors.Is(err, content.ErrRemoteUnavailable) {
				return err
			}
			if entry.Completed {
				okColor.Fprintf(cmd.OutOrStdout(), "%s marked done for %s\n", args[0], date)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s marked not done for %s\n", args[0], date)
			}
			if errors.Is(err, content.ErrRemoteUnavailable) {
				warnColor.Fprintln(cmd.OutOrStdout(), "saved locally; will sync when online")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "date (YYYY-MM-DD)")
	return cmd
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
