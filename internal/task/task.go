package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

var (
	ErrEmptyTitle        = errors.New("title is empty")
	ErrMissingDue        = errors.New("due date is required")
	ErrInvalidRange      = errors.New("start date is after due date")
	ErrUnknownFrequency  = errors.New("unknown recurrence frequency")
	ErrEmptySubtaskTitle = errors.New("subtask title is empty")
)

func ParseFrequency(v string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(v))); f {
	case Daily, Weekly, Monthly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, v)
	}
}

func (f Frequency) Valid() bool {
	return f == Daily || f == Weekly || f == Monthly
}

type SubTask struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Completed  bool   `json:"completed" yaml:"completed"`
	InProgress bool   `json:"inProgress,omitempty" yaml:"in_progress,omitempty"`
}

// Recurrence without an OriginalID marks a template; with one, a generated
// instance of that template.
type Recurrence struct {
	Frequency  Frequency `json:"frequency" yaml:"frequency"`
	OriginalID string    `json:"originalId,omitempty" yaml:"original_id,omitempty"`
}

type Task struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	DueDate     time.Time   `json:"dueDate" yaml:"due_date"`
	StartDate   *time.Time  `json:"startDate,omitempty" yaml:"start_date,omitempty"`
	Completed   bool        `json:"completed" yaml:"completed"`
	InProgress  bool        `json:"inProgress,omitempty" yaml:"in_progress,omitempty"`
	Color       string      `json:"color,omitempty" yaml:"color,omitempty"`
	Recurring   *Recurrence `json:"recurring,omitempty" yaml:"recurring,omitempty"`
	Subtasks    []SubTask   `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

func (t Task) IsTemplate() bool {
	return t.Recurring != nil && t.Recurring.OriginalID == ""
}

func (t Task) IsInstance() bool {
	return t.Recurring != nil && t.Recurring.OriginalID != ""
}

func (t Task) HasSubtasks() bool {
	return len(t.Subtasks) > 0
}

// EffectiveStart returns the first instant the task covers. A start date
// after the due date is ignored.
func (t Task) EffectiveStart() time.Time {
	if t.StartDate == nil || t.StartDate.After(t.DueDate) {
		return t.DueDate
	}
	return *t.StartDate
}

func (t Task) IsRange() bool {
	return t.StartDate != nil && !t.StartDate.After(t.DueDate)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.DueDate.IsZero() {
		return ErrMissingDue
	}
	if t.StartDate != nil && t.StartDate.After(t.DueDate) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			t.StartDate.Format(time.RFC3339), t.DueDate.Format(time.RFC3339))
	}
	if t.Recurring != nil && !t.Recurring.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, t.Recurring.Frequency)
	}
	for _, st := range t.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return ErrEmptySubtaskTitle
		}
	}
	return nil
}

// Progress reports how many subtasks are completed.
func (t Task) Progress() (done, total, percent int) {
	total = len(t.Subtasks)
	if total == 0 {
		return 0, 0, 0
	}
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	// round half up, like Math.round on a non-negative ratio
	percent = (done*200 + total) / (total * 2)
	return done, total, percent
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	c := t
	if t.StartDate != nil {
		s := *t.StartDate
		c.StartDate = &s
	}
	if t.Recurring != nil {
		r := *t.Recurring
		c.Recurring = &r
	}
	if t.Subtasks != nil {
		c.Subtasks = append([]SubTask(nil), t.Subtasks...)
	}
	return c
}

// Normalize enforces completed/in-progress exclusivity and, when subtasks
// exist, derives the task flags from them.
func (t Task) Normalize() Task {
	c := t.Clone()
	for i := range c.Subtasks {
		if c.Subtasks[i].Completed {
			c.Subtasks[i].InProgress = false
		}
	}
	if c.Completed {
		c.InProgress = false
	}
	return RollUp(c)
}

func (t Task) SubtaskIndex(id string) int {
	for i, st := range t.Subtasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func CloneAll(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay compares calendar days in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
