package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tareas/internal/config"
	"tareas/internal/logging"
	"tareas/internal/notify"
	"tareas/internal/storage"
	"tareas/internal/store"
	"tareas/internal/ui"
)

// NewRootCmd builds the command tree. Without a subcommand the TUI starts.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tareas",
		Short: "Tareas - personal task manager",
		Long: `Tareas keeps dated tasks with subtasks, ranges and recurrence in a local
SQLite database, and reminds you when they come due.

Run without arguments to open the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return ui.Run(a.store, a.cfg, notify.NewBuffer(a.cfg.Notifications))
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or the user config dir)")

	root.AddCommand(
		newListCmd(&configPath),
		newShowCmd(&configPath),
		newAddCmd(&configPath),
		newToggleCmd(&configPath),
		newProgressCmd(&configPath),
		newDeleteCmd(&configPath),
		newSubtaskCmd(&configPath),
		newRecurCmd(&configPath),
		newRemindCmd(&configPath),
		newWatchCmd(&configPath),
		newExportCmd(&configPath),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app holds everything a command needs once the config is resolved.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *store.Store
	closers []io.Closer
}

func openApp(cmd *cobra.Command, configPath string) (*app, error) {
	if configPath == "" {
		configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	a := &app{cfg: cfg, log: logger, closers: []io.Closer{logCloser}}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db)

	a.store = store.New(db, store.Options{Logger: logger})
	a.store.Load(cmd.Context())
	ev := logger.Debug().Str("command", cmd.CommandPath()).Str("db", cfg.DBPath)
	if saved, ok, err := db.UpdatedAt(cmd.Context()); err == nil && ok {
		ev = ev.Time("saved_at", saved)
	}
	ev.Int("tasks", len(a.store.Tasks())).Msg("opened")
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
