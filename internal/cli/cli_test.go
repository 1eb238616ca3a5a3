package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tareas/internal/task"
)

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	require.NoError(t, err, out)
	return out
}

// addedID pulls the short id out of "Added <id> ..." output.
func addedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 2, out)
	return fields[1]
}

func tempConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "config.toml")
}

func TestAddAndList(t *testing.T) {
	cfg := tempConfig(t)

	out := mustRun(t, cfg, "add", "--due", "2099-01-02", "--repeat", "weekly", "write report")
	assert.Contains(t, out, `"write report" due 2099-01-02`)

	out = mustRun(t, cfg, "list")
	assert.Contains(t, out, "[ ] write report  2099-01-02")
	assert.Contains(t, out, "repeats weekly")

	out = mustRun(t, cfg, "list", "--status", "completed")
	assert.Contains(t, out, "No tasks found.")

	_, err := run(t, cfg, "list", "--due", "someday")
	assert.Error(t, err)
}

func TestConfigFromEnvironment(t *testing.T) {
	path := tempConfig(t)
	t.Setenv("TAREAS_CONFIG", path)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"add", "--due", "2099-01-02", "from env"})
	require.NoError(t, root.Execute())

	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "tareas.db"))
	assert.Contains(t, mustRun(t, path, "list"), "from env")
}

func TestToggleAndProgress(t *testing.T) {
	cfg := tempConfig(t)
	id := addedID(t, mustRun(t, cfg, "add", "--due", "2099-01-02", "taxes"))

	assert.Contains(t, mustRun(t, cfg, "progress", id), "is in progress")
	assert.Contains(t, mustRun(t, cfg, "show", id), "Status      : in progress")

	assert.Contains(t, mustRun(t, cfg, "toggle", id), "is completed")
	_, err := run(t, cfg, "progress", id)
	assert.ErrorContains(t, err, "is completed")

	assert.Contains(t, mustRun(t, cfg, "toggle", id), "is pending")
}

func TestSubtasks(t *testing.T) {
	cfg := tempConfig(t)
	id := addedID(t, mustRun(t, cfg, "add", "--due", "2099-01-02", "move"))

	out := mustRun(t, cfg, "subtask", "add", id, "pack", "boxes")
	assert.Contains(t, out, `"pack boxes"`)
	first := strings.Fields(out)[2]
	second := strings.Fields(mustRun(t, cfg, "subtask", "add", id, "ship"))[2]

	out = mustRun(t, cfg, "subtask", "toggle", "--progress", id, first)
	assert.Contains(t, out, "0/2 subtasks done (0%), task is in progress")

	out = mustRun(t, cfg, "subtask", "toggle", id, first)
	assert.Contains(t, out, "1/2 subtasks done (50%), task is pending")

	out = mustRun(t, cfg, "subtask", "toggle", id, second)
	assert.Contains(t, out, "2/2 subtasks done (100%), task is completed")

	_, err := run(t, cfg, "subtask", "toggle", id, second)
	assert.ErrorContains(t, err, "toggle it first")

	mustRun(t, cfg, "toggle", id)
	out = mustRun(t, cfg, "show", id)
	assert.Contains(t, out, "Progress    : 0% (0/2)")

	mustRun(t, cfg, "subtask", "delete", id, second)
	out = mustRun(t, cfg, "list", "--subtasks")
	assert.Contains(t, out, "pack boxes")
	assert.NotContains(t, out, "ship")

	_, err = run(t, cfg, "subtask", "add", id, " ")
	assert.ErrorIs(t, err, task.ErrEmptySubtaskTitle)
}

func TestSubtaskRename(t *testing.T) {
	cfg := tempConfig(t)
	id := addedID(t, mustRun(t, cfg, "add", "--due", "2099-01-02", "move"))
	sid := strings.Fields(mustRun(t, cfg, "subtask", "add", id, "pack"))[2]
	mustRun(t, cfg, "subtask", "toggle", id, sid)

	out := mustRun(t, cfg, "subtask", "rename", id, sid, "pack", "boxes")
	assert.Contains(t, out, `Renamed subtask "pack" to "pack boxes"`)

	out = mustRun(t, cfg, "list", "--subtasks")
	assert.Contains(t, out, "pack boxes")
	assert.Contains(t, mustRun(t, cfg, "show", id), "Progress    : 100% (1/1)")

	_, err := run(t, cfg, "subtask", "rename", id, sid, " ")
	assert.ErrorIs(t, err, task.ErrEmptySubtaskTitle)

	_, err = run(t, cfg, "subtask", "rename", id, "nope", "x")
	assert.ErrorContains(t, err, "not found")
}

func TestDeleteAndUnknownID(t *testing.T) {
	cfg := tempConfig(t)
	id := addedID(t, mustRun(t, cfg, "add", "--due", "2099-01-02", "gone soon"))

	assert.Contains(t, mustRun(t, cfg, "delete", id), `Deleted`)
	assert.Contains(t, mustRun(t, cfg, "list"), "No tasks found.")

	_, err := run(t, cfg, "toggle", id)
	assert.ErrorContains(t, err, "task not found")
}

func TestRecur(t *testing.T) {
	cfg := tempConfig(t)
	yesterday := time.Now().AddDate(0, 0, -1).Format(task.DateLayout)
	mustRun(t, cfg, "add", "--due", yesterday, "--repeat", "weekly", "review")

	out := mustRun(t, cfg, "recur")
	assert.Contains(t, out, `Created`)
	assert.Contains(t, out, `"review"`)

	assert.Contains(t, mustRun(t, cfg, "recur"), "No recurring tasks due.")
}

func TestRemind(t *testing.T) {
	cfg := tempConfig(t)
	assert.Contains(t, mustRun(t, cfg, "remind"), "Nothing due within a day.")

	soon := time.Now().Add(30 * time.Minute).Format(task.DateTimeLayout)
	mustRun(t, cfg, "add", "--due", soon, "standup")

	out := mustRun(t, cfg, "remind")
	assert.Contains(t, out, `Task Reminder: Task "standup" is due within the hour!`)
}

func TestWatchStopsAfterLimit(t *testing.T) {
	cfg := tempConfig(t)
	soon := time.Now().Add(30 * time.Minute).Format(task.DateTimeLayout)
	mustRun(t, cfg, "add", "--due", soon, "standup")

	out := mustRun(t, cfg, "watch", "--for", "60ms", "--remind-every", "10ms", "--recur-every", "10ms")
	assert.Equal(t, 1, strings.Count(out, `"standup" is due within the hour!`))
	assert.Contains(t, out, "Watching")
}

func TestExport(t *testing.T) {
	cfg := tempConfig(t)
	mustRun(t, cfg, "add", "--due", "2099-01-02", "--start", "2099-01-01", "trip")

	var fromJSON []task.Task
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "export")), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "trip", fromJSON[0].Title)
	require.NotNil(t, fromJSON[0].StartDate)

	out := mustRun(t, cfg, "export", "--format", "yaml")
	assert.Contains(t, out, "title: trip")
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Contains(t, fromYAML[0], "due_date")
	assert.Contains(t, fromYAML[0], "start_date")

	file := filepath.Join(t.TempDir(), "tasks.json")
	assert.Empty(t, mustRun(t, cfg, "export", "-o", file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var fromFile []task.Task
	require.NoError(t, json.Unmarshal(data, &fromFile))
	assert.Equal(t, fromJSON, fromFile)

	_, err = run(t, cfg, "export", "-o", filepath.Join(t.TempDir(), "missing", "tasks.json"))
	assert.Error(t, err)

	_, err = run(t, cfg, "export", "--format", "csv")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestExportEmptyIsList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, exportTasks(&out, nil, "json"))
	assert.Equal(t, "[]\n", out.String())
}

func TestExportFileReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	tasks := []task.Task{{ID: "a", Title: "trip"}}
	assert.Error(t, exportFile("/dev/full", tasks, "yaml"))

	file := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, exportFile(file, tasks, "yaml"))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: trip")

	assert.Error(t, exportFile(filepath.Join(t.TempDir(), "out.csv"), tasks, "csv"))
}

func TestBuildTask(t *testing.T) {
	now := time.Date(2024, 4, 10, 15, 0, 0, 0, time.UTC)

	got, err := buildTask(" groceries ", "", "", "", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Title)
	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.Nil(t, got.Recurring)

	_, err = buildTask("trip", "", "2024-04-10", "2024-04-12", "", "", now)
	assert.True(t, errors.Is(err, task.ErrInvalidRange))

	_, err = buildTask("trip", "", "2024-04-10", "", "yearly", "", now)
	assert.True(t, errors.Is(err, task.ErrUnknownFrequency))

	_, err = buildTask("", "", "2024-04-10", "", "", "", now)
	assert.True(t, errors.Is(err, task.ErrEmptyTitle))

	_, err = buildTask("x", "", "tomorrow", "", "", "", now)
	assert.ErrorContains(t, err, "due date")
}
