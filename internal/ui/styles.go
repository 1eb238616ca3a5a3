package ui

import (
	"github.com/charmbracelet/lipgloss"

	"tareas/internal/task"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	dimStyle        = lipgloss.NewStyle().Faint(true)
	doneStyle       = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	overdueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	activeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	repeatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	selectedStyle   = lipgloss.NewStyle().Reverse(true)
	todayStyle      = lipgloss.NewStyle().Bold(true).Underline(true)
	panelStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	progressFull    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	progressPending = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func colorTag(t task.Task) string {
	if t.Color == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("▌")
}
