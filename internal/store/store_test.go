package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tareas/internal/storage"
	"tareas/internal/task"
)

type memPersister struct {
	saved   [][]task.Task
	loaded  []task.Task
	loadErr error
	saveErr error
}

func (m *memPersister) Load(context.Context) ([]task.Task, error) {
	return m.loaded, m.loadErr
}

func (m *memPersister) Save(_ context.Context, tasks []task.Task) error {
	m.saved = append(m.saved, tasks)
	return m.saveErr
}

func (m *memPersister) last() []task.Task {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

type fakeNotifier struct {
	granted bool
	shown   []string
}

func (f *fakeNotifier) PermissionGranted() bool { return f.granted }
func (f *fakeNotifier) Show(title, body string) { f.shown = append(f.shown, title+": "+body) }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestStore(p Persister, clock *fakeClock) *Store {
	return New(p, Options{NewID: seqIDs(), Now: clock.Now, Logger: zerolog.Nop()})
}

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestStore_AddToggleDeletePersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	added, err := s.AddTask(ctx, task.Task{
		Title:    "groceries",
		DueDate:  base.Add(48 * time.Hour),
		Subtasks: []task.SubTask{{Title: "milk"}, {Title: "bread"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "id1", added.ID)
	assert.Equal(t, "id2", added.Subtasks[0].ID)
	assert.Equal(t, "id3", added.Subtasks[1].ID)
	require.Len(t, p.saved, 1)

	require.NoError(t, s.ToggleSubtaskInProgress(ctx, "id1", "id2"))
	got, ok := s.Get("id1")
	require.True(t, ok)
	assert.True(t, got.InProgress)

	require.NoError(t, s.ToggleCompleted(ctx, "id1"))
	got, _ = s.Get("id1")
	assert.True(t, got.Completed)
	assert.False(t, got.InProgress)
	assert.True(t, got.Subtasks[0].Completed)
	assert.False(t, got.Subtasks[0].InProgress)
	assert.Equal(t, s.Tasks(), p.last())

	require.NoError(t, s.DeleteTask(ctx, "id1"))
	assert.Empty(t, s.Tasks())
	assert.Empty(t, p.last())
	assert.Len(t, p.saved, 4)
}

func TestStore_UnknownIDsAreSilentNoOps(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{loaded: []task.Task{{ID: "a", Title: "a", DueDate: base}}}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	assert.NoError(t, s.ToggleCompleted(ctx, "zzz"))
	assert.NoError(t, s.ToggleInProgress(ctx, "zzz"))
	assert.NoError(t, s.ToggleSubtaskCompleted(ctx, "zzz", "s"))
	assert.NoError(t, s.UpdateTask(ctx, task.Task{ID: "zzz", Title: "ghost", DueDate: base}))
	assert.NoError(t, s.DeleteTask(ctx, "zzz"))
	assert.NoError(t, s.DeleteSubtask(ctx, "zzz", "s"))
	_, err := s.AddSubtask(ctx, "zzz", task.SubTask{Title: "x"})
	assert.NoError(t, err)

	assert.Empty(t, p.saved)
	assert.Equal(t, p.loaded, s.Tasks())
}

func TestStore_SubtaskEditsRollUp(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{loaded: []task.Task{{
		ID: "a", Title: "a", DueDate: base,
		Subtasks: []task.SubTask{{ID: "s1", Title: "one", Completed: true}},
		Completed: true,
	}}}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	st, err := s.AddSubtask(ctx, "a", task.SubTask{Title: "two"})
	require.NoError(t, err)
	got, _ := s.Get("a")
	assert.False(t, got.Completed, "adding an open subtask reopens the task")

	require.NoError(t, s.UpdateSubtask(ctx, "a", task.SubTask{ID: st.ID, Title: "two!", InProgress: true}))
	got, _ = s.Get("a")
	assert.Equal(t, "two!", got.Subtasks[1].Title)
	assert.True(t, got.InProgress)

	require.NoError(t, s.DeleteSubtask(ctx, "a", st.ID))
	got, _ = s.Get("a")
	require.Len(t, got.Subtasks, 1)
	assert.True(t, got.Completed)
	assert.False(t, got.InProgress)
}

func TestStore_UpdateTaskNormalizes(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{loaded: []task.Task{{ID: "a", Title: "a", DueDate: base}}}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	require.NoError(t, s.UpdateTask(ctx, task.Task{
		ID: "a", Title: "renamed", DueDate: base, Completed: true, InProgress: true,
	}))
	got, _ := s.Get("a")
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed)
	assert.False(t, got.InProgress)
}

func TestStore_LoadFailureStartsEmpty(t *testing.T) {
	p := &memPersister{loaded: []task.Task{{ID: "x"}}, loadErr: storage.ErrCorrupt}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(context.Background())
	assert.Empty(t, s.Tasks())
}

func TestStore_SaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	p := &memPersister{saveErr: boom}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	added, err := s.AddTask(ctx, task.Task{Title: "a", DueDate: base})
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.ErrorIs(t, err, boom)

	got, ok := s.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{loaded: []task.Task{{
		ID: "a", Title: "a", DueDate: base,
		Subtasks: []task.SubTask{{ID: "s1", Title: "one"}},
	}}}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	snap := s.Tasks()
	snap[0].Subtasks[0].Completed = true
	snap[0].Title = "mutated"

	got, _ := s.Get("a")
	assert.Equal(t, "a", got.Title)
	assert.False(t, got.Subtasks[0].Completed)
}

func TestStore_GenerateRecurring(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	p := &memPersister{loaded: []task.Task{{
		ID: "A", Title: "review", DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Recurring: &task.Recurrence{Frequency: task.Weekly},
	}}}
	s := newTestStore(p, clock)
	s.Load(ctx)

	created, err := s.GenerateRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), created[0].DueDate)
	assert.Len(t, s.Tasks(), 2)
	assert.Len(t, p.saved, 1)

	created, err = s.GenerateRecurring(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, s.Tasks(), 2)
	assert.Len(t, p.saved, 1, "no write when nothing is generated")
}

func TestStore_CheckReminders(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: base}
	p := &memPersister{loaded: []task.Task{
		{ID: "B", Title: "call", DueDate: base.Add(30 * time.Minute)},
		{ID: "C", Title: "late", DueDate: base.Add(-time.Hour)},
	}}
	s := newTestStore(p, clock)
	s.Load(ctx)

	denied := &fakeNotifier{}
	assert.Empty(t, s.CheckReminders(denied))
	assert.Empty(t, s.CheckReminders(nil))

	n := &fakeNotifier{granted: true}
	fired := s.CheckReminders(n)
	require.Len(t, fired, 1)
	assert.Equal(t, []string{`Task Reminder: Task "call" is due within the hour!`}, n.shown)

	clock.t = base.Add(10 * time.Minute)
	assert.Empty(t, s.CheckReminders(n))
	assert.Len(t, n.shown, 1)
}

func TestStore_Find(t *testing.T) {
	p := &memPersister{loaded: []task.Task{{ID: "abc123"}, {ID: "abd456"}}}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(context.Background())

	got, err := s.Find("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)

	_, err = s.Find("ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = s.Find("zz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WithSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(filepath.Join(t.TempDir(), "tareas.db"))
	require.NoError(t, err)
	defer db.Close()

	s := newTestStore(db, &fakeClock{t: base})
	s.Load(ctx)
	added, err := s.AddTask(ctx, task.Task{Title: "persisted", DueDate: base})
	require.NoError(t, err)
	require.NoError(t, s.ToggleInProgress(ctx, added.ID))

	reopened := newTestStore(db, &fakeClock{t: base})
	reopened.Load(ctx)
	got, ok := reopened.Get(added.ID)
	require.True(t, ok)
	assert.True(t, got.InProgress)
}

// gatedPersister holds its first Save until release is closed.
type gatedPersister struct {
	mu      sync.Mutex
	calls   int
	saved   [][]task.Task
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) Load(context.Context) ([]task.Task, error) {
	return []task.Task{{ID: "a", Title: "a", DueDate: base}}, nil
}

func (g *gatedPersister) Save(_ context.Context, tasks []task.Task) error {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	g.saved = append(g.saved, tasks)
	g.mu.Unlock()
	return nil
}

func TestStore_SavesLandInSwapOrder(t *testing.T) {
	ctx := context.Background()
	p := &gatedPersister{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestStore(p, &fakeClock{t: base})
	s.Load(ctx)

	first := make(chan error, 1)
	go func() { first <- s.ToggleCompleted(ctx, "a") }()
	<-p.entered

	second := make(chan error, 1)
	go func() { second <- s.ToggleCompleted(ctx, "a") }()
	time.Sleep(20 * time.Millisecond)
	close(p.release)

	require.NoError(t, <-first)
	require.NoError(t, <-second)

	got, _ := s.Get("a")
	assert.False(t, got.Completed)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.saved, 2)
	assert.True(t, p.saved[0][0].Completed)
	assert.Equal(t, got.Completed, p.saved[1][0].Completed)
}
