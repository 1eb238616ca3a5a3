package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tareas/internal/notify"
	"tareas/internal/store"
	"tareas/internal/task"
)

func newRecurCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recur",
		Short: "Create the next instance of every due recurring task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.store.GenerateRecurring(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintln(out, "No recurring tasks due.")
				return nil
			}
			for _, t := range created {
				fmt.Fprintf(out, "Created %s %q due %s\n", shortID(t.ID), t.Title, task.FormatDateTime(t.DueDate))
			}
			return nil
		},
	}
}

func newRemindCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Print reminders for tasks due within a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n := notify.Log{Out: cmd.OutOrStdout(), Logger: a.log, Enabled: true, Bell: a.cfg.Bell}
			if len(a.store.CheckReminders(n)) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due within a day.")
			}
			return nil
		},
	}
}

func newWatchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep running reminders and recurring generation until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := store.WatchOptions{
				ReminderEvery:   a.cfg.Reminders(),
				RecurrenceEvery: a.cfg.Recurrence(),
			}
			if d, _ := cmd.Flags().GetDuration("remind-every"); d > 0 {
				opts.ReminderEvery = d
			}
			if d, _ := cmd.Flags().GetDuration("recur-every"); d > 0 {
				opts.RecurrenceEvery = d
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			limit, _ := cmd.Flags().GetDuration("for")
			ctx, cancel := watchContext(ctx, limit)
			defer cancel()

			n := notify.Log{Out: cmd.OutOrStdout(), Logger: a.log, Enabled: a.cfg.Notifications, Bell: a.cfg.Bell}
			a.log.Info().Dur("remind_every", opts.ReminderEvery).Dur("recur_every", opts.RecurrenceEvery).Msg("watch started")
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching (reminders every %s, recurrence every %s). Ctrl+C to stop.\n",
				opts.ReminderEvery, opts.RecurrenceEvery)

			err = a.store.Watch(ctx, opts, n)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.log.Info().Msg("watch stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("remind-every", 0, "reminder check interval (default from config)")
	cmd.Flags().Duration("recur-every", 0, "recurring generation interval (default from config)")
	cmd.Flags().Duration("for", 0, "stop after this long (default until interrupted)")
	return cmd
}

// watchContext bounds ctx by the --for flag when it is set.
func watchContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
