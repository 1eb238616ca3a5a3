package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tareas/internal/config"
	"tareas/internal/notify"
	"tareas/internal/store"
	"tareas/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeCalendar
	modeForm
	modeSubtask
)

type row struct {
	taskID    string
	subtaskID string
}

type (
	reminderTickMsg   time.Time
	recurrenceTickMsg time.Time
)

type Model struct {
	store      *store.Store
	cfg        config.Config
	notifier   *notify.Buffer
	now        func() time.Time
	tasks      []task.Task
	rows       []row
	expanded   map[string]bool
	filters    task.Filters
	cursor     int
	mode       mode
	returnTo   mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *row
	form       *formState
	subtaskFor string
	renaming   string
	day        time.Time
}

func New(s *store.Store, cfg config.Config, n *notify.Buffer, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:    s,
		cfg:      cfg,
		notifier: n,
		now:      now,
		expanded: map[string]bool{},
		filters:  cfg.Filters(),
		input:    ti,
		mode:     modeList,
		status:   "Press 'a' to add, space to toggle, 'p' for in progress, 'c' for calendar.",
		day:      now(),
	}
	m.refresh()
	return m
}

func Run(s *store.Store, cfg config.Config, n *notify.Buffer) error {
	program := tea.NewProgram(New(s, cfg, n, time.Now), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return recurrenceTickMsg(m.now()) },
		func() tea.Msg { return reminderTickMsg(m.now()) },
	)
}

func (m Model) reminderTick() tea.Cmd {
	return tea.Tick(m.cfg.Reminders(), func(t time.Time) tea.Msg { return reminderTickMsg(t) })
}

func (m Model) recurrenceTick() tea.Cmd {
	return tea.Tick(m.cfg.Recurrence(), func(t time.Time) tea.Msg { return recurrenceTickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateFormMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	case reminderTickMsg:
		m.checkReminders()
		return m, m.reminderTick()
	case recurrenceTickMsg:
		m.generateRecurring()
		return m, m.recurrenceTick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeSubtask:
		return m.updateSubtaskMode(key, msg)
	case modeCalendar:
		return m.updateCalendarMode(key)
	}
	return m.updateListMode(key)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.rows))
	case k.Add:
		return m.startForm(newForm(m.now()))
	case k.Edit:
		r, ok := m.selectedRow()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		if r.subtaskID != "" {
			m.subtaskFor = r.taskID
			m.renaming = r.subtaskID
			m.mode = modeSubtask
			m.input.SetValue(m.rowTitle(r))
			m.input.Placeholder = "Subtask title"
			m.input.Focus()
			m.status = "Rename subtask: edit the title and press Enter"
			return m, nil
		}
		t, ok := m.selectedTask()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startForm(formFromTask(t, m.now().Location()))
	case k.Toggle:
		m.toggleCompleted()
	case k.Progress:
		m.toggleProgress()
	case k.Expand:
		r, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		m.expanded[r.taskID] = !m.expanded[r.taskID]
		m.refresh()
		m.cursor = m.rowIndex(row{taskID: r.taskID})
	case k.AddSubtask:
		r, ok := m.selectedRow()
		if !ok {
			m.status = "Select a task first"
			return m, nil
		}
		m.subtaskFor = r.taskID
		m.mode = modeSubtask
		m.input.SetValue("")
		m.input.Placeholder = "Subtask title"
		m.input.Focus()
		m.status = "New subtask: type a title and press Enter"
	case k.Delete:
		r, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &r
		m.status = fmt.Sprintf("Delete %q? y/n", m.rowTitle(r))
	case k.StatusFilter:
		m.filters.Status = nextStatusFilter(m.filters.Status)
		m.refresh()
		m.status = "Status filter: " + string(m.filters.Status)
	case k.DueFilter:
		m.filters.Due = nextDueFilter(m.filters.Due)
		m.refresh()
		m.status = "Due filter: " + string(m.filters.Due)
	case k.SwitchView:
		m.mode = modeCalendar
		if t, ok := m.selectedTask(); ok {
			m.day = t.DueDate.In(m.now().Location())
		} else {
			m.day = m.now()
		}
		m.status = "Calendar: h/l day, j/k week, [ ] month, c back to list"
	case k.GenerateRepeat:
		if n := m.generateRecurring(); n == 0 {
			m.status = "No recurring tasks due"
		}
	case k.Notifications:
		if m.notifier == nil {
			return m, nil
		}
		on := !m.notifier.PermissionGranted()
		m.notifier.SetEnabled(on)
		if on {
			m.status = "Reminders on"
			m.checkReminders()
		} else {
			m.status = "Reminders off"
		}
	}
	return m, nil
}

func (m Model) updateSubtaskMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.Blur()
		m.subtaskFor = ""
		m.renaming = ""
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		taskID := m.subtaskFor
		if m.renaming != "" {
			m.renameSubtask(taskID, m.renaming, title)
		} else {
			_, err := m.store.AddSubtask(context.Background(), taskID, task.SubTask{Title: title})
			m.expanded[taskID] = true
			m.afterMutation("Added subtask", err)
		}
		m.input.SetValue("")
		m.input.Blur()
		m.subtaskFor = ""
		m.renaming = ""
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) renameSubtask(taskID, subtaskID, title string) {
	t, ok := m.store.Get(taskID)
	if !ok {
		m.status = "Task no longer exists"
		m.refresh()
		return
	}
	i := t.SubtaskIndex(subtaskID)
	if i < 0 {
		m.status = "Subtask no longer exists"
		m.refresh()
		return
	}
	st := t.Subtasks[i]
	st.Title = title
	m.afterMutation("Renamed subtask", m.store.UpdateSubtask(context.Background(), taskID, st))
	m.cursor = m.rowIndex(row{taskID: taskID, subtaskID: subtaskID})
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		r := *m.pendingDel
		ctx := context.Background()
		if r.subtaskID != "" {
			m.afterMutation("Deleted subtask", m.store.DeleteSubtask(ctx, r.taskID, r.subtaskID))
		} else {
			delete(m.expanded, r.taskID)
			m.afterMutation("Deleted task", m.store.DeleteTask(ctx, r.taskID))
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) toggleCompleted() {
	r, ok := m.selectedRow()
	if !ok {
		return
	}
	ctx := context.Background()
	if r.subtaskID == "" {
		m.afterMutation("Toggled task", m.store.ToggleCompleted(ctx, r.taskID))
		return
	}
	if t, ok := m.store.Get(r.taskID); ok && t.Completed {
		m.status = "Task is completed; reopen it to change subtasks"
		return
	}
	m.afterMutation("Toggled subtask", m.store.ToggleSubtaskCompleted(ctx, r.taskID, r.subtaskID))
}

func (m *Model) toggleProgress() {
	r, ok := m.selectedRow()
	if !ok {
		return
	}
	t, ok := m.store.Get(r.taskID)
	if !ok {
		return
	}
	if t.Completed {
		m.status = "Task is completed"
		return
	}
	ctx := context.Background()
	if r.subtaskID == "" {
		m.afterMutation("Toggled in progress", m.store.ToggleInProgress(ctx, r.taskID))
		return
	}
	if i := t.SubtaskIndex(r.subtaskID); i >= 0 && t.Subtasks[i].Completed {
		m.status = "Subtask is completed"
		return
	}
	m.afterMutation("Toggled subtask in progress", m.store.ToggleSubtaskInProgress(ctx, r.taskID, r.subtaskID))
}

// afterMutation reloads the view and re-runs the reminder check, since any
// change to the collection may bring a task into a reminder window.
func (m *Model) afterMutation(ok string, err error) {
	var saveErr *store.SaveError
	switch {
	case errors.As(err, &saveErr):
		m.status = fmt.Sprintf("%s (not saved: %v)", ok, saveErr.Err)
	case err != nil:
		m.status = fmt.Sprintf("failed: %v", err)
	default:
		m.status = ok
	}
	m.refresh()
	m.checkReminders()
}

func (m *Model) checkReminders() {
	if m.notifier == nil {
		return
	}
	m.store.CheckReminders(m.notifier)
	notices := m.notifier.Drain()
	if len(notices) == 0 {
		return
	}
	last := notices[len(notices)-1]
	m.status = "⏰ " + last.Body
	if len(notices) > 1 {
		m.status += fmt.Sprintf(" (+%d more)", len(notices)-1)
	}
}

func (m *Model) generateRecurring() int {
	created, err := m.store.GenerateRecurring(context.Background())
	if len(created) == 0 && err == nil {
		return 0
	}
	m.afterMutation(fmt.Sprintf("Generated %d recurring task(s)", len(created)), err)
	return len(created)
}

func (m *Model) refresh() {
	m.tasks = m.store.Tasks()
	visible := task.Filter(m.tasks, m.filters, m.now())
	rows := make([]row, 0, len(visible))
	for _, t := range visible {
		rows = append(rows, row{taskID: t.ID})
		if m.expanded[t.ID] {
			for _, st := range t.Subtasks {
				rows = append(rows, row{taskID: t.ID, subtaskID: st.ID})
			}
		}
	}
	m.rows = rows
	m.cursor = clampCursor(m.cursor, len(m.rows))
}

func (m Model) selectedRow() (row, bool) {
	if len(m.rows) == 0 {
		return row{}, false
	}
	return m.rows[clampCursor(m.cursor, len(m.rows))], true
}

func (m Model) selectedTask() (task.Task, bool) {
	r, ok := m.selectedRow()
	if !ok {
		return task.Task{}, false
	}
	return m.findTask(r.taskID)
}

func (m Model) findTask(id string) (task.Task, bool) {
	idx := task.IndexOf(m.tasks, id)
	if idx < 0 {
		return task.Task{}, false
	}
	return m.tasks[idx], true
}

func (m Model) rowIndex(r row) int {
	for i, cur := range m.rows {
		if cur == r {
			return i
		}
	}
	return clampCursor(m.cursor, len(m.rows))
}

func (m Model) rowTitle(r row) string {
	t, ok := m.findTask(r.taskID)
	if !ok {
		return ""
	}
	if r.subtaskID == "" {
		return t.Title
	}
	if i := t.SubtaskIndex(r.subtaskID); i >= 0 {
		return t.Subtasks[i].Title
	}
	return ""
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tareas"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  status:%s • due:%s", m.filters.Status, m.filters.Due)))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.renderForm())
	case m.mode == modeCalendar:
		b.WriteString(m.renderCalendar())
	default:
		if len(m.rows) == 0 {
			b.WriteString("No tasks found. Press '" + m.cfg.Keys.Add + "' to add one.")
		} else {
			b.WriteString(m.renderTaskList())
		}
		b.WriteString("\n---\n")
		b.WriteString(m.renderDetailPanel())
		if m.mode == modeSubtask {
			b.WriteString("\nSubtask: ")
			b.WriteString(m.input.View())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys, m.mode)))

	return b.String()
}

func renderHelp(k config.Keymap, md mode) string {
	if md == modeCalendar {
		return fmt.Sprintf("h/l day • j/k week • %s/%s month • %s list • %s quit",
			k.PrevMonth, k.NextMonth, k.SwitchView, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %s edit • space toggle • %s progress • %s expand • %s subtask • %s delete • %s/%s filter • %s calendar • %s reminders • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Progress, k.Expand, k.AddSubtask, k.Delete, k.StatusFilter, k.DueFilter, k.SwitchView, k.Notifications, k.Quit)
}

func (m Model) renderTaskList() string {
	now := m.now()
	var b strings.Builder
	for i, r := range m.rows {
		cursor := " "
		if m.cursor == i && m.mode != modeCalendar {
			cursor = ">"
		}
		t, ok := m.findTask(r.taskID)
		if !ok {
			continue
		}
		if r.subtaskID != "" {
			idx := t.SubtaskIndex(r.subtaskID)
			if idx < 0 {
				continue
			}
			st := t.Subtasks[idx]
			line := fmt.Sprintf("%s     %s %s", cursor, checkbox(st.Completed, st.InProgress), st.Title)
			if st.Completed {
				line = doneStyle.Render(line)
			} else if st.InProgress {
				line = activeStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			continue
		}

		fold := " "
		if t.HasSubtasks() {
			fold = "▸"
			if m.expanded[t.ID] {
				fold = "▾"
			}
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
		extras := []string{dateLabel(t)}
		if t.Recurring != nil {
			extras = append(extras, repeatStyle.Render("↻ "+string(t.Recurring.Frequency)))
		}
		if done, total, pct := t.Progress(); total > 0 {
			extras = append(extras, fmt.Sprintf("%d/%d %s", done, total, progressBar(pct, 10)))
		}
		if t.InProgress && !t.Completed {
			extras = append(extras, activeStyle.Render("in progress"))
		}
		fmt.Fprintf(&b, "%s%s%s %s %s  %s\n", cursor, colorTag(t), fold, checkbox(t.Completed, t.InProgress), title,
			dimStyle.Render(strings.Join(extras, " • ")))
	}
	return b.String()
}

func (m Model) renderDetailPanel() string {
	t, ok := m.selectedTask()
	if !ok {
		return "No task selected"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Title       : %s\n", t.Title)
	fmt.Fprintf(&b, "Description : %s\n", emptyPlaceholder(t.Description))
	fmt.Fprintf(&b, "Status      : %s\n", humanStatus(t))
	fmt.Fprintf(&b, "Due         : %s\n", task.FormatDateTime(t.DueDate))
	if t.IsRange() {
		fmt.Fprintf(&b, "Start       : %s\n", task.FormatDateTime(*t.StartDate))
	}
	switch {
	case t.IsTemplate():
		fmt.Fprintf(&b, "Repeats     : %s\n", t.Recurring.Frequency)
	case t.IsInstance():
		fmt.Fprintf(&b, "Repeats     : %s (from %s)\n", t.Recurring.Frequency, t.Recurring.OriginalID)
	}
	if done, total, pct := t.Progress(); total > 0 {
		fmt.Fprintf(&b, "Progress    : %d%% (%d/%d completed)\n", pct, done, total)
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func dateLabel(t task.Task) string {
	if t.IsRange() {
		return t.StartDate.Format("02 Jan") + " - " + t.DueDate.Format("02 Jan")
	}
	return t.DueDate.Format("02 Jan")
}

func checkbox(completed, inProgress bool) string {
	switch {
	case completed:
		return "[x]"
	case inProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func progressBar(pct, width int) string {
	filled := pct * width / 100
	return progressFull.Render(strings.Repeat("█", filled)) +
		progressPending.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", pct)
}

func humanStatus(t task.Task) string {
	switch {
	case t.Completed:
		return "completed"
	case t.InProgress:
		return "in progress"
	default:
		return "pending"
	}
}

func nextStatusFilter(cur task.StatusFilter) task.StatusFilter {
	for i, f := range task.StatusFilters {
		if f == cur {
			return task.StatusFilters[wrapIndex(i+1, len(task.StatusFilters))]
		}
	}
	return task.StatusAll
}

func nextDueFilter(cur task.DueFilter) task.DueFilter {
	for i, f := range task.DueFilters {
		if f == cur {
			return task.DueFilters[wrapIndex(i+1, len(task.DueFilters))]
		}
	}
	return task.DueAll
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
