package task

import (
	"fmt"
	"time"
)

type Threshold string

const (
	ThresholdDay  Threshold = "day"
	ThresholdHour Threshold = "hour"
)

const ReminderTitle = "Task Reminder"

type Reminder struct {
	TaskID    string
	Title     string
	Threshold Threshold
	Message   string
}

// NotifiedSet records which (task, threshold) reminders already fired.
type NotifiedSet map[string]struct{}

func NewNotifiedSet() NotifiedSet {
	return make(NotifiedSet)
}

func (s NotifiedSet) Has(taskID string, th Threshold) bool {
	_, ok := s[reminderKey(taskID, th)]
	return ok
}

func (s NotifiedSet) clone() NotifiedSet {
	c := make(NotifiedSet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// DueReminders selects incomplete tasks due within the next 24 hours whose
// threshold has not fired yet. The returned set includes the new keys; the
// input set is left untouched.
func DueReminders(tasks []Task, now time.Time, notified NotifiedSet) ([]Reminder, NotifiedSet) {
	next := notified.clone()
	var out []Reminder
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		remaining := t.DueDate.Sub(now)
		if remaining <= 0 || remaining > 24*time.Hour {
			continue
		}
		th := ThresholdDay
		if remaining <= time.Hour {
			th = ThresholdHour
		}
		key := reminderKey(t.ID, th)
		if _, ok := next[key]; ok {
			continue
		}
		next[key] = struct{}{}
		out = append(out, Reminder{
			TaskID:    t.ID,
			Title:     ReminderTitle,
			Threshold: th,
			Message:   reminderMessage(t.Title, th, remaining),
		})
	}
	return out, next
}

func reminderMessage(title string, th Threshold, remaining time.Duration) string {
	if th == ThresholdHour {
		return fmt.Sprintf("Task %q is due within the hour!", title)
	}
	return fmt.Sprintf("Task %q is due in %d hours.", title, int(remaining/time.Hour))
}

func reminderKey(taskID string, th Threshold) string {
	return taskID + "-" + string(th)
}
