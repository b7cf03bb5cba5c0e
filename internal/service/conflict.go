package service

import (
	"time"

	"dotodo/internal/model"
)

// overlaps is the half-open interval intersection test: touching
// boundaries do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// CanSchedule reports whether [newStart, newEnd) can be assigned to the
// given task (subtaskID zero) or subtask without colliding with any other
// active scheduled interval.
//
// The slot being rescheduled is excluded from the check: the task's own
// slot when scheduling the task, the specific subtask's slot when
// scheduling that subtask. A task and its own subtasks may overlap each
// other. Completed tasks and subtasks are never conflict sources. The
// function has no side effects, so callers can check before committing.
func CanSchedule(tasks []model.Task, taskID, subtaskID uint, newStart, newEnd time.Time) bool {
	check := func(start, end *time.Time) bool {
		if start == nil || end == nil {
			return false
		}
		return overlaps(newStart, newEnd, *start, *end)
	}

	for _, t := range tasks {
		if t.Completed {
			continue
		}
		ownTask := t.ID == taskID
		if !ownTask {
			if check(t.ScheduledStart, t.ScheduledEnd) {
				return false
			}
		}
		for _, sub := range t.Subtasks {
			if sub.Completed {
				continue
			}
			if ownTask && (subtaskID == 0 || sub.ID == subtaskID) {
				// A task coexists with its own subtasks; a subtask only
				// with itself and the parent slot, not its siblings.
				continue
			}
			if check(sub.ScheduledStart, sub.ScheduledEnd) {
				return false
			}
		}
	}
	return true
}
