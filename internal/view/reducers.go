package view

import "todoctl/internal/service"

// The apply* functions patch the cached list after the server confirmed a change.
// They never modify their input slice.

// applyCreated appends task, or replaces the entry with the same ID so the task appears once.
func applyCreated(tasks []service.Task, task service.Task) []service.Task {
	if i := indexOf(tasks, task.ID); i >= 0 {
		return applyUpdated(tasks, task)
	}
	out := make([]service.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, task)
}

// applyToggled sets the completion flag of the task with id.
func applyToggled(tasks []service.Task, id string, completed bool) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	if i := indexOf(out, id); i >= 0 {
		out[i].Completed = completed
	}
	return out
}

// applyUpdated replaces the task with the same ID in place.
func applyUpdated(tasks []service.Task, task service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	if i := indexOf(out, task.ID); i >= 0 {
		out[i] = task
	}
	return out
}

// applyDeleted removes the task with id, preserving the order of the rest.
func applyDeleted(tasks []service.Task, id string) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	removed := false
	for _, t := range tasks {
		if !removed && t.ID == id {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out
}

func indexOf(tasks []service.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
