package service

import (
	"time"

	"dotodo/internal/model"
)

// nextOccurrence steps an instant forward by one recurrence unit.
// Month and year steps clamp to the target month's length, so a task due
// Jan 31 recurs on Feb 28, not Mar 3.
func nextOccurrence(t time.Time, unit model.Recurrence) time.Time {
	switch unit {
	case model.RecurWeekly:
		return t.AddDate(0, 0, 7)
	case model.RecurMonthly:
		return addMonthsClamped(t, 1)
	case model.RecurYearly:
		return addMonthsClamped(t, 12)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysInMonth(first.Month(), first.Year()); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(first.Year(), first.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
	return lastOfMonth.Day()
}

// visibleFromFor is the reappearance gate for a regenerated occurrence:
// monthly and yearly tasks stay hidden until their month begins, daily and
// weekly tasks until their day begins. This keeps caught-up recurring tasks
// from flooding the views as stale-looking items.
func visibleFromFor(due time.Time, unit model.Recurrence) time.Time {
	if unit == model.RecurMonthly || unit == model.RecurYearly {
		return startOfMonth(due)
	}
	return startOfDay(due)
}

// rollForward advances a missed recurring task to its first occurrence not
// before today, stepping the schedule in lockstep when present, and returns
// the mutated copy together with the number of missed cycles. A task whose
// due date is not in the past comes back unchanged with a zero count.
func rollForward(task model.Task, now time.Time) (model.Task, int) {
	if task.DueDate == nil || !task.IsRecurring() {
		return task, 0
	}

	today := startOfDay(now)
	due := startOfDay(task.DueDate.In(now.Location()))
	if !due.Before(today) {
		return task, 0
	}

	currentDue := *task.DueDate
	var currentStart, currentEnd *time.Time
	if task.ScheduledStart != nil {
		s := *task.ScheduledStart
		currentStart = &s
	}
	if task.ScheduledEnd != nil {
		e := *task.ScheduledEnd
		currentEnd = &e
	}

	missCount := 0
	for startOfDay(currentDue.In(now.Location())).Before(today) {
		missCount++
		currentDue = nextOccurrence(currentDue, task.Recurrence)
		if currentStart != nil {
			s := nextOccurrence(*currentStart, task.Recurrence)
			currentStart = &s
		}
		if currentEnd != nil {
			e := nextOccurrence(*currentEnd, task.Recurrence)
			currentEnd = &e
		}
	}

	task.DueDate = &currentDue
	task.ScheduledStart = currentStart
	task.ScheduledEnd = currentEnd
	visible := visibleFromFor(currentDue.In(now.Location()), task.Recurrence)
	task.VisibleFrom = &visible
	return task, missCount
}

// nextInstance builds the regenerated occurrence created when a recurring
// task is completed. The returned task has a zero id (a fresh row on
// insert); the original stays completed and untouched.
//
// The schedule carries over only when IsRecurringSchedule is set, shifted by
// one unit with its duration preserved, and arms the alarm on the new
// instance. Subtasks are cloned uncompleted with their schedules cleared.
func nextInstance(task model.Task, now time.Time) model.Task {
	nextDue := nextOccurrence(*task.DueDate, task.Recurrence)
	visible := visibleFromFor(nextDue.In(now.Location()), task.Recurrence)

	next := task
	next.ID = 0
	next.DueDate = &nextDue
	next.Completed = false
	next.CompletedAt = nil
	next.VisibleFrom = &visible
	next.ScheduledStart = nil
	next.ScheduledEnd = nil
	next.AlarmSet = false
	next.CreatedAt = time.Time{}
	next.UpdatedAt = time.Time{}

	if task.IsRecurringSchedule && task.ScheduledStart != nil {
		duration := time.Hour
		if task.ScheduledEnd != nil {
			duration = task.ScheduledEnd.Sub(*task.ScheduledStart)
		}
		start := nextOccurrence(*task.ScheduledStart, task.Recurrence)
		end := start.Add(duration)
		next.ScheduledStart = &start
		next.ScheduledEnd = &end
		next.AlarmSet = true
	}

	next.Subtasks = make([]model.Subtask, 0, len(task.Subtasks))
	for _, sub := range task.Subtasks {
		next.Subtasks = append(next.Subtasks, model.Subtask{
			TaskID:  0,
			Title:   sub.Title,
			DueDate: sub.DueDate,
		})
	}
	return next
}
