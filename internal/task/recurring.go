package task

import (
	"strconv"
	"time"
)

// GenerateRecurring returns the next instance of every template whose
// current occurrence has come due. It never back-fills: each template yields
// at most one instance per call, and only when that instance falls on or
// after today. Instances already present in tasks are not generated again.
// Calendar days are evaluated in now's location.
func GenerateRecurring(tasks []Task, now time.Time) []Task {
	loc := now.Location()
	today := startOfDay(now)

	existing := make(map[string]struct{})
	for _, t := range tasks {
		if t.IsInstance() {
			existing[instanceKey(t.Recurring.OriginalID, t.DueDate, loc)] = struct{}{}
		}
	}

	var out []Task
	for _, t := range tasks {
		if !t.IsTemplate() {
			continue
		}
		if t.DueDate.After(now) {
			continue
		}
		next, ok := NextOccurrence(t.DueDate, t.Recurring.Frequency)
		if !ok {
			continue
		}
		if next.Before(today) {
			continue
		}
		key := instanceKey(t.ID, next, loc)
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}
		out = append(out, newInstance(t, next))
	}
	return out
}

// NextOccurrence advances due by one period of f. Monthly steps clamp to the
// last day of the target month.
func NextOccurrence(due time.Time, f Frequency) (time.Time, bool) {
	switch f {
	case Daily:
		return due.AddDate(0, 0, 1), true
	case Weekly:
		return due.AddDate(0, 0, 7), true
	case Monthly:
		return addMonthClamped(due), true
	default:
		return time.Time{}, false
	}
}

func addMonthClamped(t time.Time) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func InstanceID(templateID string, due time.Time) string {
	return templateID + "-" + strconv.FormatInt(due.UnixMilli(), 10)
}

func instanceKey(templateID string, due time.Time, loc *time.Location) string {
	return templateID + "|" + dayKey(due, loc)
}

func newInstance(tmpl Task, next time.Time) Task {
	inst := tmpl.Clone()
	inst.ID = InstanceID(tmpl.ID, next)
	if inst.StartDate != nil {
		shifted := inst.StartDate.Add(next.Sub(tmpl.DueDate))
		inst.StartDate = &shifted
	}
	inst.DueDate = next
	inst.Completed = false
	inst.InProgress = false
	inst.Recurring = &Recurrence{Frequency: tmpl.Recurring.Frequency, OriginalID: tmpl.ID}
	for i := range inst.Subtasks {
		inst.Subtasks[i].Completed = false
		inst.Subtasks[i].InProgress = false
	}
	return inst
}
