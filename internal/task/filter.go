package task

import (
	"fmt"
	"strings"
	"time"
)

type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusCompleted  StatusFilter = "completed"
	StatusPending    StatusFilter = "pending"
	StatusInProgress StatusFilter = "in-progress"
)

type DueFilter string

const (
	DueAll      DueFilter = "all"
	DueToday    DueFilter = "today"
	DueUpcoming DueFilter = "upcoming"
	DueOverdue  DueFilter = "overdue"
)

var (
	StatusFilters = []StatusFilter{StatusAll, StatusPending, StatusInProgress, StatusCompleted}
	DueFilters    = []DueFilter{DueAll, DueToday, DueUpcoming, DueOverdue}
)

type Filters struct {
	Status StatusFilter
	Due    DueFilter
}

func ParseStatusFilter(v string) (StatusFilter, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return StatusAll, nil
	}
	for _, f := range StatusFilters {
		if string(f) == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q", v)
}

func ParseDueFilter(v string) (DueFilter, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DueAll, nil
	}
	for _, f := range DueFilters {
		if string(f) == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown due filter %q", v)
}

func (f Filters) Match(t Task, now time.Time) bool {
	switch f.Status {
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	case StatusPending:
		if t.Completed || t.InProgress {
			return false
		}
	case StatusInProgress:
		if !t.InProgress || t.Completed {
			return false
		}
	}

	today := startOfDay(now)
	due := startOfDay(t.DueDate.In(now.Location()))
	switch f.Due {
	case DueToday:
		return due.Equal(today)
	case DueUpcoming:
		return due.After(today)
	case DueOverdue:
		return due.Before(today) && !t.Completed
	}
	return true
}

func Filter(tasks []Task, f Filters, now time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// IsOverdue reports an incomplete task whose due day is before today.
func IsOverdue(t Task, now time.Time) bool {
	return !t.Completed && startOfDay(t.DueDate.In(now.Location())).Before(startOfDay(now))
}
