package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tareas/internal/task"
)

func (m Model) updateCalendarMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case "h", "left":
		m.day = m.day.AddDate(0, 0, -1)
	case "l", "right":
		m.day = m.day.AddDate(0, 0, 1)
	case "k", "up":
		m.day = m.day.AddDate(0, 0, -7)
	case "j", "down":
		m.day = m.day.AddDate(0, 0, 7)
	case k.PrevMonth:
		m.day = m.day.AddDate(0, -1, 0)
	case k.NextMonth:
		m.day = m.day.AddDate(0, 1, 0)
	case "t":
		m.day = m.now()
	case k.Add:
		f := newForm(m.now())
		f.due = m.day.Format(task.DateLayout)
		return m.startForm(f)
	case k.SwitchView, k.Cancel, "esc":
		m.mode = modeList
		m.status = "List view"
	}
	return m, nil
}

func (m Model) renderCalendar() string {
	now := m.now()
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.day.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString("Mo  Tu  We  Th  Fr  Sa  Su\n")
	for _, week := range task.MonthGrid(m.day) {
		cells := make([]string, 0, len(week))
		for _, d := range week {
			mark := " "
			if n := len(task.OnDay(m.tasks, d)); n > 0 {
				mark = "•"
				if n > 9 {
					mark = "+"
				}
			}
			cell := fmt.Sprintf("%2d%s", d.Day(), mark)
			switch {
			case task.SameDay(d, m.day):
				cell = selectedStyle.Render(cell)
			case task.SameDay(d, now):
				cell = todayStyle.Render(cell)
			case d.Month() != m.day.Month():
				cell = dimStyle.Render(cell)
			}
			cells = append(cells, cell)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.day.Format("Monday 02 January") + "\n")
	onDay := task.OnDay(m.tasks, m.day)
	if len(onDay) == 0 {
		b.WriteString(dimStyle.Render("  no tasks"))
		return b.String()
	}
	for _, t := range onDay {
		marker := ""
		switch {
		case task.StartsOn(t, m.day) && task.EndsOn(t, m.day):
		case task.StartsOn(t, m.day):
			marker = " (starts)"
		case task.EndsOn(t, m.day):
			if t.IsRange() {
				marker = " (ends)"
			}
		case t.IsRange():
			marker = " (continues)"
		}
		title := t.Title
		switch {
		case t.Completed:
			title = doneStyle.Render(title)
		case task.IsOverdue(t, now):
			title = overdueStyle.Render(title)
		case t.InProgress:
			title = activeStyle.Render(title)
		}
		line := fmt.Sprintf("  %s%s %s%s", colorTag(t), checkbox(t.Completed, t.InProgress), title, dimStyle.Render(marker))
		if !t.IsRange() && (t.DueDate.Hour() != 0 || t.DueDate.Minute() != 0) {
			line += dimStyle.Render(" " + t.DueDate.Format("15:04"))
		}
		if done, total, _ := t.Progress(); total > 0 {
			line += dimStyle.Render(fmt.Sprintf(" subtasks %d/%d", done, total))
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
