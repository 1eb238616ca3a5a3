package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tareas/internal/task"
)

func newSubtaskCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"sub"},
		Short:   "Manage subtasks",
	}
	cmd.AddCommand(
		newSubtaskAddCmd(configPath),
		newSubtaskRenameCmd(configPath),
		newSubtaskToggleCmd(configPath),
		newSubtaskDeleteCmd(configPath),
	)
	return cmd
}

func newSubtaskAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add [task-id] [title]",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return task.ErrEmptySubtaskTitle
			}
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}
			st, err := a.store.AddSubtask(cmd.Context(), t.ID, task.SubTask{Title: title})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %s %q to %q\n", shortID(st.ID), st.Title, t.Title)
			return nil
		},
	}
}

func newSubtaskRenameCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [task-id] [subtask-id] [title]",
		Short: "Rename a subtask",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args[2:], " "))
			if title == "" {
				return task.ErrEmptySubtaskTitle
			}
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}
			st, err := findSubtask(t, args[1])
			if err != nil {
				return err
			}
			old := st.Title
			st.Title = title
			if err := a.store.UpdateSubtask(cmd.Context(), t.ID, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed subtask %q to %q\n", old, title)
			return nil
		},
	}
}

func newSubtaskToggleCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle [task-id] [subtask-id]",
		Short: "Toggle a subtask completed, or in progress with --progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}
			st, err := findSubtask(t, args[1])
			if err != nil {
				return err
			}
			if t.Completed {
				return fmt.Errorf("task %s is completed; toggle it first", shortID(t.ID))
			}

			progress, _ := cmd.Flags().GetBool("progress")
			if progress {
				if st.Completed {
					return fmt.Errorf("subtask %s is completed", shortID(st.ID))
				}
				err = a.store.ToggleSubtaskInProgress(cmd.Context(), t.ID, st.ID)
			} else {
				err = a.store.ToggleSubtaskCompleted(cmd.Context(), t.ID, st.ID)
			}
			if err != nil {
				return err
			}

			t, _ = a.store.Get(t.ID)
			done, total, pct := t.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "%q: %d/%d subtasks done (%d%%), task is %s\n",
				t.Title, done, total, pct, statusLabel(t))
			return nil
		},
	}
	cmd.Flags().BoolP("progress", "p", false, "toggle in progress instead of completed")
	return cmd
}

func newSubtaskDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task-id] [subtask-id]",
		Aliases: []string{"rm"},
		Short:   "Delete a subtask",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}
			st, err := findSubtask(t, args[1])
			if err != nil {
				return err
			}
			if err := a.store.DeleteSubtask(cmd.Context(), t.ID, st.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask %q from %q\n", st.Title, t.Title)
			return nil
		},
	}
}

// findSubtask resolves a full subtask id or a unique prefix of one.
func findSubtask(t task.Task, ref string) (task.SubTask, error) {
	if i := t.SubtaskIndex(ref); i >= 0 {
		return t.Subtasks[i], nil
	}
	var found []task.SubTask
	for _, st := range t.Subtasks {
		if ref != "" && strings.HasPrefix(st.ID, ref) {
			found = append(found, st)
		}
	}
	switch len(found) {
	case 0:
		return task.SubTask{}, fmt.Errorf("subtask %q not found in %q", ref, t.Title)
	case 1:
		return found[0], nil
	default:
		return task.SubTask{}, fmt.Errorf("subtask id %q is ambiguous (%d matches)", ref, len(found))
	}
}
