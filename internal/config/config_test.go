package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tareas/internal/task"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(dir, "sub", DefaultDBName), cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.Reminders())
	assert.Equal(t, time.Hour, cfg.Recurrence())
	assert.Equal(t, task.Filters{Status: task.StatusAll, Due: task.DueAll}, cfg.Filters())

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreate_ReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	data := `
db_path = ""
default_status_filter = "pending"
default_due_filter = "overdue"
reminder_interval = "30s"
notifications = false
bell = true

[keys]
quit = "x"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultDBName), cfg.DBPath)
	assert.Equal(t, task.Filters{Status: task.StatusPending, Due: task.DueOverdue}, cfg.Filters())
	assert.Equal(t, 30*time.Second, cfg.Reminders())
	assert.False(t, cfg.Notifications)
	assert.True(t, cfg.Bell)
	assert.Equal(t, "x", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add)
	assert.Equal(t, "n", cfg.Keys.Notifications)
}

func TestLoadOrCreate_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	data := `
default_status_filter = "someday"
recurrence_interval = "-5m"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "someday")
	assert.Contains(t, err.Error(), "recurrence_interval")
	assert.Equal(t, time.Hour, cfg.Recurrence())
	assert.Equal(t, task.StatusAll, cfg.Filters().Status)
}

func TestLoadOrCreate_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("db_path = ["), 0o644))
	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestResolveConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())
}
