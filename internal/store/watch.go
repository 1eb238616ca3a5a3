package store

import (
	"context"
	"errors"
	"time"
)

type WatchOptions struct {
	ReminderEvery   time.Duration
	RecurrenceEvery time.Duration
}

// Watch runs the reminder and recurrence checks on independent tickers
// until ctx is done. Both run once immediately. Save failures are logged and
// do not stop the loop.
func (s *Store) Watch(ctx context.Context, opts WatchOptions, n Notifier) error {
	if opts.ReminderEvery <= 0 || opts.RecurrenceEvery <= 0 {
		return errors.New("watch intervals must be positive")
	}
	reminders := time.NewTicker(opts.ReminderEvery)
	defer reminders.Stop()
	recurrence := time.NewTicker(opts.RecurrenceEvery)
	defer recurrence.Stop()

	s.recur(ctx, n)
	s.CheckReminders(n)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reminders.C:
			s.CheckReminders(n)
		case <-recurrence.C:
			s.recur(ctx, n)
		}
	}
}

func (s *Store) recur(ctx context.Context, n Notifier) {
	created, err := s.GenerateRecurring(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("recurring generation not persisted")
	}
	if len(created) > 0 {
		// new instances may already be inside the reminder window
		s.CheckReminders(n)
	}
}
