package task

// Status changes never touch the input slice. Each toggle returns a new slice
// in which only the targeted task differs; unknown ids return the input.

func ToggleCompleted(tasks []Task, taskID string) []Task {
	return updateTask(tasks, taskID, func(t Task) Task {
		t.Completed = !t.Completed
		if t.Completed {
			t.InProgress = false
		}
		return CascadeDown(t)
	})
}

func ToggleInProgress(tasks []Task, taskID string) []Task {
	return updateTask(tasks, taskID, func(t Task) Task {
		t.InProgress = !t.InProgress
		if t.InProgress {
			t.Completed = false
		}
		return t
	})
}

func ToggleSubtaskCompleted(tasks []Task, taskID, subtaskID string) []Task {
	return updateSubtask(tasks, taskID, subtaskID, func(st SubTask) SubTask {
		st.Completed = !st.Completed
		if st.Completed {
			st.InProgress = false
		}
		return st
	})
}

func ToggleSubtaskInProgress(tasks []Task, taskID, subtaskID string) []Task {
	return updateSubtask(tasks, taskID, subtaskID, func(st SubTask) SubTask {
		st.InProgress = !st.InProgress
		if st.InProgress {
			st.Completed = false
		}
		return st
	})
}

// CascadeDown copies the task's completion onto every subtask. Completing
// the task also clears subtask progress. Uncompleting resets every subtask
// to not completed, discarding earlier per-subtask completion.
func CascadeDown(t Task) Task {
	if len(t.Subtasks) == 0 {
		return t
	}
	subs := make([]SubTask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		st.Completed = t.Completed
		if t.Completed {
			st.InProgress = false
		}
		subs[i] = st
	}
	t.Subtasks = subs
	return t
}

// RollUp derives the task flags from its subtasks. A task without subtasks
// is returned unchanged.
func RollUp(t Task) Task {
	if len(t.Subtasks) == 0 {
		return t
	}
	all, active := true, false
	for _, st := range t.Subtasks {
		if !st.Completed {
			all = false
		}
		if st.InProgress {
			active = true
		}
	}
	t.Completed = all
	t.InProgress = !all && active
	return t
}

func updateTask(tasks []Task, taskID string, fn func(Task) Task) []Task {
	idx := IndexOf(tasks, taskID)
	if idx < 0 {
		return tasks
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	out[idx] = fn(tasks[idx].Clone())
	return out
}

func updateSubtask(tasks []Task, taskID, subtaskID string, fn func(SubTask) SubTask) []Task {
	idx := IndexOf(tasks, taskID)
	if idx < 0 || tasks[idx].SubtaskIndex(subtaskID) < 0 {
		return tasks
	}
	return updateTask(tasks, taskID, func(t Task) Task {
		i := t.SubtaskIndex(subtaskID)
		t.Subtasks[i] = fn(t.Subtasks[i])
		return RollUp(t)
	})
}
