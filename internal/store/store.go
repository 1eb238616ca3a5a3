package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tareas/internal/task"
)

type Persister interface {
	Load(ctx context.Context) ([]task.Task, error)
	Save(ctx context.Context, tasks []task.Task) error
}

type Notifier interface {
	PermissionGranted() bool
	Show(title, body string)
}

// SaveError reports a failed write. The in-memory collection has already
// advanced when it is returned.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return "save tasks: " + e.Err.Error() }
func (e *SaveError) Unwrap() error { return e.Err }

var ErrNotFound = errors.New("task not found")

type Options struct {
	NewID  func() string
	Now    func() time.Time
	Logger zerolog.Logger
}

// Store owns the canonical task collection. Every mutation computes a new
// collection, swaps it in and then persists it.
type Store struct {
	// saveMu is held from swap to save so writes land in swap order.
	saveMu   sync.Mutex
	mu       sync.Mutex
	tasks    []task.Task
	notified task.NotifiedSet
	persist  Persister
	newID    func() string
	now      func() time.Time
	log      zerolog.Logger
}

func New(p Persister, opts Options) *Store {
	s := &Store{
		persist:  p,
		notified: task.NewNotifiedSet(),
		newID:    opts.NewID,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Load replaces the collection with the persisted one. Unreadable data
// leaves an empty collection and is only logged.
func (s *Store) Load(ctx context.Context) {
	tasks, err := s.persist.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("load tasks failed, starting empty")
		tasks = nil
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.log.Info().Int("count", len(tasks)).Msg("tasks loaded")
}

// Tasks returns a snapshot safe to keep and modify.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.CloneAll(s.tasks)
}

func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := task.IndexOf(s.tasks, id)
	if idx < 0 {
		return task.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// Find resolves a full id or a unique id prefix.
func (s *Store) Find(ref string) (task.Task, error) {
	if t, ok := s.Get(ref); ok {
		return t, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []task.Task
	for _, t := range s.tasks {
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return found[0].Clone(), nil
	default:
		return task.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(found))
	}
}

func (s *Store) NewID() string {
	return s.newID()
}

// apply is the single mutation entry point.
func (s *Store) apply(ctx context.Context, op string, fn func([]task.Task) []task.Task) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next := fn(s.tasks)
	s.tasks = next
	snapshot := task.CloneAll(next)
	s.mu.Unlock()

	if err := s.persist.Save(ctx, snapshot); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("persist tasks failed")
		return &SaveError{Err: err}
	}
	s.log.Debug().Str("op", op).Int("count", len(snapshot)).Msg("tasks saved")
	return nil
}

// AddTask stores t, assigning ids where missing. It returns the stored task.
func (s *Store) AddTask(ctx context.Context, t task.Task) (task.Task, error) {
	t = t.Clone()
	if t.ID == "" {
		t.ID = s.newID()
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = s.newID()
		}
	}
	t = t.Normalize()
	err := s.apply(ctx, "add_task", func(cur []task.Task) []task.Task {
		out := make([]task.Task, 0, len(cur)+1)
		out = append(out, cur...)
		return append(out, t)
	})
	return t, err
}

// UpdateTask replaces the task with the same id. Unknown ids are ignored.
func (s *Store) UpdateTask(ctx context.Context, t task.Task) error {
	t = t.Clone()
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = s.newID()
		}
	}
	t = t.Normalize()
	return s.mutateTask(ctx, "update_task", t.ID, func(task.Task) task.Task { return t })
}

// DeleteTask removes the task together with its subtasks.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, ok := s.Get(id); !ok {
		return nil
	}
	return s.apply(ctx, "delete_task", func(cur []task.Task) []task.Task {
		out := make([]task.Task, 0, len(cur))
		for _, t := range cur {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	})
}

func (s *Store) ToggleCompleted(ctx context.Context, id string) error {
	return s.toggle(ctx, "toggle_completed", id, func(cur []task.Task) []task.Task {
		return task.ToggleCompleted(cur, id)
	})
}

func (s *Store) ToggleInProgress(ctx context.Context, id string) error {
	return s.toggle(ctx, "toggle_in_progress", id, func(cur []task.Task) []task.Task {
		return task.ToggleInProgress(cur, id)
	})
}

func (s *Store) ToggleSubtaskCompleted(ctx context.Context, taskID, subtaskID string) error {
	return s.toggle(ctx, "toggle_subtask_completed", taskID, func(cur []task.Task) []task.Task {
		return task.ToggleSubtaskCompleted(cur, taskID, subtaskID)
	})
}

func (s *Store) ToggleSubtaskInProgress(ctx context.Context, taskID, subtaskID string) error {
	return s.toggle(ctx, "toggle_subtask_in_progress", taskID, func(cur []task.Task) []task.Task {
		return task.ToggleSubtaskInProgress(cur, taskID, subtaskID)
	})
}

// AddSubtask appends st to the task and re-derives the task status.
func (s *Store) AddSubtask(ctx context.Context, taskID string, st task.SubTask) (task.SubTask, error) {
	if st.ID == "" {
		st.ID = s.newID()
	}
	if st.Completed {
		st.InProgress = false
	}
	err := s.mutateTask(ctx, "add_subtask", taskID, func(t task.Task) task.Task {
		t.Subtasks = append(t.Subtasks, st)
		return task.RollUp(t)
	})
	return st, err
}

func (s *Store) UpdateSubtask(ctx context.Context, taskID string, st task.SubTask) error {
	if st.Completed {
		st.InProgress = false
	}
	return s.mutateTask(ctx, "update_subtask", taskID, func(t task.Task) task.Task {
		i := t.SubtaskIndex(st.ID)
		if i < 0 {
			return t
		}
		t.Subtasks[i] = st
		return task.RollUp(t)
	})
}

func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	return s.mutateTask(ctx, "delete_subtask", taskID, func(t task.Task) task.Task {
		subs := make([]task.SubTask, 0, len(t.Subtasks))
		for _, st := range t.Subtasks {
			if st.ID != subtaskID {
				subs = append(subs, st)
			}
		}
		t.Subtasks = subs
		return task.RollUp(t)
	})
}

// GenerateRecurring merges the next instance of every due template into the
// collection and returns the new instances.
func (s *Store) GenerateRecurring(ctx context.Context) ([]task.Task, error) {
	now := s.now()
	if len(task.GenerateRecurring(s.Tasks(), now)) == 0 {
		return nil, nil
	}
	var created []task.Task
	err := s.apply(ctx, "generate_recurring", func(cur []task.Task) []task.Task {
		created = task.GenerateRecurring(cur, now)
		out := make([]task.Task, 0, len(cur)+len(created))
		out = append(out, cur...)
		return append(out, created...)
	})
	for _, t := range created {
		s.log.Info().Str("task_id", t.ID).Str("template_id", t.Recurring.OriginalID).
			Time("due", t.DueDate).Msg("recurring instance generated")
	}
	return task.CloneAll(created), err
}

// CheckReminders shows every newly due reminder through n. Nothing is
// recorded while n has no permission, so reminders fire once it is granted.
func (s *Store) CheckReminders(n Notifier) []task.Reminder {
	if n == nil || !n.PermissionGranted() {
		return nil
	}
	s.mu.Lock()
	reminders, notified := task.DueReminders(s.tasks, s.now(), s.notified)
	s.notified = notified
	s.mu.Unlock()

	for _, r := range reminders {
		s.log.Info().Str("task_id", r.TaskID).Str("threshold", string(r.Threshold)).Msg("reminder")
		n.Show(r.Title, r.Message)
	}
	return reminders
}

func (s *Store) toggle(ctx context.Context, op, id string, fn func([]task.Task) []task.Task) error {
	if _, ok := s.Get(id); !ok {
		return nil
	}
	return s.apply(ctx, op, fn)
}

func (s *Store) mutateTask(ctx context.Context, op, id string, fn func(task.Task) task.Task) error {
	if _, ok := s.Get(id); !ok {
		return nil
	}
	return s.apply(ctx, op, func(cur []task.Task) []task.Task {
		idx := task.IndexOf(cur, id)
		if idx < 0 {
			return cur
		}
		out := make([]task.Task, len(cur))
		copy(out, cur)
		out[idx] = fn(cur[idx].Clone())
		return out
	})
}
