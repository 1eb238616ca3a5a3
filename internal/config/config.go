package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"tareas/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tareas.db"
	DefaultLogName        = "tareas.log"
	EnvConfigPath         = "TAREAS_CONFIG"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Progress       string `toml:"progress"`
	Delete         string `toml:"delete"`
	Expand         string `toml:"expand"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	Edit           string `toml:"edit"`
	AddSubtask     string `toml:"add_subtask"`
	StatusFilter   string `toml:"status_filter"`
	DueFilter      string `toml:"due_filter"`
	SwitchView     string `toml:"switch_view"`
	PrevMonth      string `toml:"prev_month"`
	NextMonth      string `toml:"next_month"`
	GenerateRepeat string `toml:"generate_recurring"`
	Notifications  string `toml:"toggle_notifications"`
}

type Config struct {
	DBPath              string `toml:"db_path"`
	LogPath             string `toml:"log_path"`
	LogLevel            string `toml:"log_level"`
	DefaultStatusFilter string `toml:"default_status_filter"`
	DefaultDueFilter    string `toml:"default_due_filter"`
	Notifications       bool   `toml:"notifications"`
	Bell                bool   `toml:"bell"`
	ReminderInterval    string `toml:"reminder_interval"`
	RecurrenceInterval  string `toml:"recurrence_interval"`
	Keys                Keymap `toml:"keys"`
}

// ResolveConfigPath picks $TAREAS_CONFIG, then the user config directory,
// then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tareas", DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := task.ParseStatusFilter(c.DefaultStatusFilter); err != nil {
		errs = append(errs, err)
	}
	if _, err := task.ParseDueFilter(c.DefaultDueFilter); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseInterval(c.ReminderInterval, time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("reminder_interval: %w", err))
	}
	if _, err := parseInterval(c.RecurrenceInterval, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("recurrence_interval: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) Filters() task.Filters {
	s, err := task.ParseStatusFilter(c.DefaultStatusFilter)
	if err != nil {
		s = task.StatusAll
	}
	d, err := task.ParseDueFilter(c.DefaultDueFilter)
	if err != nil {
		d = task.DueAll
	}
	return task.Filters{Status: s, Due: d}
}

func (c Config) Reminders() time.Duration {
	d, _ := parseInterval(c.ReminderInterval, time.Minute)
	return d
}

func (c Config) Recurrence() time.Duration {
	d, _ := parseInterval(c.RecurrenceInterval, time.Hour)
	return d
}

func parseInterval(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, err
	}
	if d <= 0 {
		return def, fmt.Errorf("interval must be positive, got %s", v)
	}
	return d, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:              filepath.Join(dir, DefaultDBName),
		LogPath:             filepath.Join(dir, DefaultLogName),
		LogLevel:            "info",
		DefaultStatusFilter: string(task.StatusAll),
		DefaultDueFilter:    string(task.DueAll),
		Notifications:       true,
		ReminderInterval:    "1m",
		RecurrenceInterval:  "1h",
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Progress:       "p",
			Delete:         "d",
			Expand:         "o",
			Confirm:        "enter",
			Cancel:         "esc",
			Edit:           "e",
			AddSubtask:     "s",
			StatusFilter:   "f",
			DueFilter:      "g",
			SwitchView:     "c",
			PrevMonth:      "[",
			NextMonth:      "]",
			GenerateRepeat: "r",
			Notifications:  "n",
		},
	}
}
