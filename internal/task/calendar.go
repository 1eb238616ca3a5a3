package task

import "time"

// OnDay returns the tasks whose calendar-day span covers day, evaluated in
// day's location.
func OnDay(tasks []Task, day time.Time) []Task {
	loc := day.Location()
	d := startOfDay(day)
	var out []Task
	for _, t := range tasks {
		start := startOfDay(t.EffectiveStart().In(loc))
		end := startOfDay(t.DueDate.In(loc))
		if !d.Before(start) && !d.After(end) {
			out = append(out, t)
		}
	}
	return out
}

func StartsOn(t Task, day time.Time) bool {
	return t.IsRange() && SameDay(day, *t.StartDate)
}

func EndsOn(t Task, day time.Time) bool {
	return SameDay(day, t.DueDate)
}

// MonthGrid returns Monday-first week rows covering month. Days outside
// the month pad the first and last rows.
func MonthGrid(month time.Time) [][]time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	offset := (int(first.Weekday()) + 6) % 7
	cur := first.AddDate(0, 0, -offset)
	last := first.AddDate(0, 1, -1)

	var weeks [][]time.Time
	for !cur.After(last) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = cur
			cur = cur.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}
