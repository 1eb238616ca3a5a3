package ui

import (
	"fmt"
	"strings"
	"time"

	"tareas/internal/task"
)

// formState holds the raw text of every task field while it is edited.
type formState struct {
	taskID      string
	title       string
	description string
	due         string
	start       string
	recurring   string
	color       string
	index       int
}

func formFields() []string {
	return []string{
		"title",
		"description",
		"due (YYYY-MM-DD [HH:MM])",
		"start (optional, for a range)",
		"repeat (none/daily/weekly/monthly)",
		"color (optional, e.g. #f472b6)",
	}
}

func newForm(now time.Time) *formState {
	return &formState{
		due:       now.Format(task.DateLayout),
		recurring: "none",
	}
}

// formFromTask fills the form with t's dates shown in loc, the zone apply
// parses them back in.
func formFromTask(t task.Task, loc *time.Location) *formState {
	f := &formState{
		taskID:      t.ID,
		title:       t.Title,
		description: t.Description,
		due:         task.FormatDateTime(t.DueDate.In(loc)),
		color:       t.Color,
		recurring:   "none",
	}
	if t.StartDate != nil {
		f.start = task.FormatDateTime(t.StartDate.In(loc))
	}
	if t.Recurring != nil {
		f.recurring = string(t.Recurring.Frequency)
	}
	return f
}

func (f formState) currentLabel() string {
	return formFields()[f.index]
}

func (f formState) currentValue() string {
	switch f.index {
	case 0:
		return f.title
	case 1:
		return f.description
	case 2:
		return f.due
	case 3:
		return f.start
	case 4:
		return f.recurring
	case 5:
		return f.color
	default:
		return ""
	}
}

func (f *formState) setCurrentValue(v string) {
	switch f.index {
	case 0:
		f.title = v
	case 1:
		f.description = v
	case 2:
		f.due = v
	case 3:
		f.start = v
	case 4:
		f.recurring = v
	case 5:
		f.color = v
	}
}

func (f formState) values() []string {
	return []string{f.title, f.description, f.due, f.start, f.recurring, f.color}
}

// apply writes the form onto base. Status, subtasks and the id of base are
// kept; a generated instance keeps its template link while it still repeats.
func (f formState) apply(base task.Task, loc *time.Location) (task.Task, error) {
	t := base.Clone()
	t.Title = strings.TrimSpace(f.title)
	t.Description = strings.TrimSpace(f.description)
	t.Color = strings.TrimSpace(f.color)

	due, err := task.ParseDateTime(f.due, loc)
	if err != nil {
		return base, fmt.Errorf("due date: %w", err)
	}
	t.DueDate = due

	t.StartDate = nil
	if strings.TrimSpace(f.start) != "" {
		start, err := task.ParseDateTime(f.start, loc)
		if err != nil {
			return base, fmt.Errorf("start date: %w", err)
		}
		t.StartDate = &start
	}

	rec, err := task.ParseRecurrence(f.recurring)
	if err != nil {
		return base, err
	}
	if rec != nil && base.Recurring != nil {
		rec.OriginalID = base.Recurring.OriginalID
	}
	t.Recurring = rec

	if err := t.Validate(); err != nil {
		return base, err
	}
	return t, nil
}
