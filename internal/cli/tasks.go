package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tareas/internal/task"
)

const shortIDLen = 8

func newListCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			filters := a.cfg.Filters()
			if v, _ := cmd.Flags().GetString("status"); v != "" {
				if filters.Status, err = task.ParseStatusFilter(v); err != nil {
					return err
				}
			}
			if v, _ := cmd.Flags().GetString("due"); v != "" {
				if filters.Due, err = task.ParseDueFilter(v); err != nil {
					return err
				}
			}

			now := time.Now()
			visible := task.Filter(a.store.Tasks(), filters, now)
			out := cmd.OutOrStdout()
			if len(visible) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			withSubtasks, _ := cmd.Flags().GetBool("subtasks")
			for _, t := range visible {
				printTaskLine(out, t, now)
				if withSubtasks {
					printSubtasks(out, t)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("status", "", "status filter: all, completed, pending, in-progress")
	cmd.Flags().String("due", "", "due filter: all, today, upcoming, overdue")
	cmd.Flags().BoolP("subtasks", "s", false, "include subtasks")
	return cmd
}

func newShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
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
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID          : %s\n", t.ID)
			fmt.Fprintf(out, "Title       : %s\n", t.Title)
			if t.Description != "" {
				fmt.Fprintf(out, "Description : %s\n", t.Description)
			}
			fmt.Fprintf(out, "Status      : %s\n", statusLabel(t))
			if t.IsRange() {
				fmt.Fprintf(out, "Start       : %s\n", task.FormatDateTime(*t.StartDate))
			}
			fmt.Fprintf(out, "Due         : %s\n", task.FormatDateTime(t.DueDate))
			if t.Recurring != nil {
				fmt.Fprintf(out, "Repeats     : %s\n", t.Recurring.Frequency)
			}
			if done, total, pct := t.Progress(); total > 0 {
				fmt.Fprintf(out, "Progress    : %d%% (%d/%d)\n", pct, done, total)
				printSubtasks(out, t)
			}
			return nil
		},
	}
}

func newAddCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			if title == "" {
				title = strings.Join(args, " ")
			}
			desc, _ := cmd.Flags().GetString("description")
			dueFlag, _ := cmd.Flags().GetString("due")
			startFlag, _ := cmd.Flags().GetString("start")
			repeat, _ := cmd.Flags().GetString("repeat")
			color, _ := cmd.Flags().GetString("color")

			t, err := buildTask(title, desc, dueFlag, startFlag, repeat, color, time.Now())
			if err != nil {
				return err
			}

			a, err := openApp(cmd, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.store.AddTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q due %s\n", shortID(added.ID), added.Title, task.FormatDateTime(added.DueDate))
			return nil
		},
	}
	cmd.Flags().StringP("title", "t", "", "task title")
	cmd.Flags().StringP("description", "d", "", "task description")
	cmd.Flags().String("due", "", "due date, YYYY-MM-DD [HH:MM] (default today)")
	cmd.Flags().String("start", "", "start date for a range, YYYY-MM-DD [HH:MM]")
	cmd.Flags().StringP("repeat", "r", "", "repeat: daily, weekly, monthly")
	cmd.Flags().String("color", "", "display color, e.g. #f472b6")
	return cmd
}

// buildTask turns flag values into a validated task. An empty due date means
// today.
func buildTask(title, desc, due, start, repeat, color string, now time.Time) (task.Task, error) {
	t := task.Task{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(desc),
		Color:       strings.TrimSpace(color),
	}
	if strings.TrimSpace(due) == "" {
		due = now.Format(task.DateLayout)
	}
	d, err := task.ParseDateTime(due, now.Location())
	if err != nil {
		return task.Task{}, fmt.Errorf("due date: %w", err)
	}
	t.DueDate = d
	if strings.TrimSpace(start) != "" {
		s, err := task.ParseDateTime(start, now.Location())
		if err != nil {
			return task.Task{}, fmt.Errorf("start date: %w", err)
		}
		t.StartDate = &s
	}
	if t.Recurring, err = task.ParseRecurrence(repeat); err != nil {
		return task.Task{}, err
	}
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func newToggleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [task-id]",
		Short: "Toggle a task between completed and pending",
		Args:  cobra.ExactArgs(1),
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
			if err := a.store.ToggleCompleted(cmd.Context(), t.ID); err != nil {
				return err
			}
			t, _ = a.store.Get(t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q is %s\n", shortID(t.ID), t.Title, statusLabel(t))
			return nil
		},
	}
}

func newProgressCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [task-id]",
		Short: "Toggle a task in progress",
		Args:  cobra.ExactArgs(1),
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
			if t.Completed {
				return fmt.Errorf("task %s is completed; toggle it first", shortID(t.ID))
			}
			if err := a.store.ToggleInProgress(cmd.Context(), t.ID); err != nil {
				return err
			}
			t, _ = a.store.Get(t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q is %s\n", shortID(t.ID), t.Title, statusLabel(t))
			return nil
		},
	}
}

func newDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task-id]",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
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
			if err := a.store.DeleteTask(cmd.Context(), t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", shortID(t.ID), t.Title)
			return nil
		},
	}
}

func printTaskLine(w io.Writer, t task.Task, now time.Time) {
	when := task.FormatDateTime(t.DueDate)
	if t.IsRange() {
		when = task.FormatDateTime(*t.StartDate) + " .. " + when
	}
	var extras []string
	if t.Recurring != nil {
		extras = append(extras, "repeats "+string(t.Recurring.Frequency))
	}
	if done, total, pct := t.Progress(); total > 0 {
		extras = append(extras, fmt.Sprintf("%d/%d %d%%", done, total, pct))
	}
	if task.IsOverdue(t, now) {
		extras = append(extras, "overdue")
	}
	line := fmt.Sprintf("%-8s  %s %s  %s", shortID(t.ID), mark(t.Completed, t.InProgress), t.Title, when)
	if len(extras) > 0 {
		line += "  (" + strings.Join(extras, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}

func printSubtasks(w io.Writer, t task.Task) {
	for _, st := range t.Subtasks {
		fmt.Fprintf(w, "          %s %s  %s\n", mark(st.Completed, st.InProgress), st.Title, shortID(st.ID))
	}
}

func mark(completed, inProgress bool) string {
	switch {
	case completed:
		return "[x]"
	case inProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func statusLabel(t task.Task) string {
	switch {
	case t.Completed:
		return "completed"
	case t.InProgress:
		return "in progress"
	default:
		return "pending"
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
