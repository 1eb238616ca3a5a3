package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tareas/internal/task"
)

func newExportCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("output")

			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if outPath != "" {
				return exportFile(outPath, a.store.Tasks(), format)
			}
			return exportTasks(cmd.OutOrStdout(), a.store.Tasks(), format)
		},
	}
	cmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	return cmd
}

// exportFile writes the export to path. A failed close is reported, since
// it may be the write that did not reach the disk.
func exportFile(path string, tasks []task.Task, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return exportTasks(f, tasks, format)
}

func exportTasks(w io.Writer, tasks []task.Task, format string) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q (want json or yaml)", format)
	}
}
