package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tareas/internal/task"
)

func (m Model) startForm(f *formState) (tea.Model, tea.Cmd) {
	m.form = f
	m.returnTo = m.mode
	m.mode = modeForm
	m.input.SetValue(f.currentValue())
	m.input.Placeholder = f.currentLabel()
	m.input.Focus()
	if f.taskID == "" {
		m.status = "New task: tab to move, enter to save/next, esc to cancel"
	} else {
		m.status = "Edit task: tab to move, enter to save/next, esc to cancel"
	}
	return m, nil
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = m.returnTo
		m.input.Blur()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.syncInput()
		return m, nil
	case "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.syncInput()
		return m, nil
	case "ctrl+s":
		m.form.setCurrentValue(m.input.Value())
		return m.saveForm()
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields())-1 {
			return m.saveForm()
		}
		m.form.index++
		m.syncInput()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) syncInput() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, ctrl+s to save, Esc to cancel.",
		m.form.currentLabel(), m.form.index+1, len(formFields()))
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	loc := m.now().Location()
	ctx := context.Background()

	var base task.Task
	if f.taskID != "" {
		existing, ok := m.store.Get(f.taskID)
		if !ok {
			m.form = nil
			m.mode = m.returnTo
			m.input.Blur()
			m.status = "Task no longer exists"
			m.refresh()
			return m, nil
		}
		base = existing
	}

	t, err := f.apply(base, loc)
	if err != nil {
		m.status = fmt.Sprintf("invalid: %v", err)
		return m, nil
	}

	m.form = nil
	m.mode = m.returnTo
	m.input.Blur()
	if f.taskID == "" {
		added, err := m.store.AddTask(ctx, t)
		m.afterMutation("Added task", err)
		m.cursor = m.rowIndex(row{taskID: added.ID})
	} else {
		m.afterMutation("Task saved", m.store.UpdateTask(ctx, t))
		m.cursor = m.rowIndex(row{taskID: t.ID})
	}
	return m, nil
}

func (m Model) renderForm() string {
	f := m.form
	var b strings.Builder
	if f.taskID == "" {
		b.WriteString("New task\n\n")
	} else {
		b.WriteString("Edit task\n\n")
	}
	values := f.values()
	for i, name := range formFields() {
		prefix := " "
		if i == f.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		fmt.Fprintf(&b, "%s %-36s : %s\n", prefix, name, val)
	}
	b.WriteString("\nField: " + f.currentLabel() + "\n")
	b.WriteString(m.input.View())
	return b.String()
}
