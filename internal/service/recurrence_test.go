package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotodo/internal/model"
)

func TestRollForward(t *testing.T) {
	now := refDay

	t.Run("not overdue is untouched", func(t *testing.T) {
		due := at(now, 18, 0)
		task := model.Task{Recurrence: model.RecurDaily, DueDate: &due}
		rolled, missed := rollForward(task, now)
		assert.Equal(t, 0, missed)
		assert.Equal(t, due, *rolled.DueDate)
	})

	t.Run("daily three days behind", func(t *testing.T) {
		due := at(now.AddDate(0, 0, -3), 9, 0)
		task := model.Task{Recurrence: model.RecurDaily, DueDate: &due}

		rolled, missed := rollForward(task, now)
		assert.Equal(t, 3, missed)
		assert.Equal(t, at(now, 9, 0), *rolled.DueDate)
		require.NotNil(t, rolled.VisibleFrom)
		assert.Equal(t, startOfDay(now), *rolled.VisibleFrom)
	})

	t.Run("weekly two cycles behind", func(t *testing.T) {
		due := at(now.AddDate(0, 0, -10), 9, 0)
		task := model.Task{Recurrence: model.RecurWeekly, DueDate: &due}

		rolled, missed := rollForward(task, now)
		assert.Equal(t, 2, missed)
		assert.Equal(t, due.AddDate(0, 0, 14), *rolled.DueDate)
	})

	t.Run("monthly visibility gate is start of month", func(t *testing.T) {
		due := at(now.AddDate(0, -1, 0), 9, 0)
		task := model.Task{Recurrence: model.RecurMonthly, DueDate: &due}

		rolled, missed := rollForward(task, now)
		assert.Equal(t, 1, missed)
		require.NotNil(t, rolled.VisibleFrom)
		assert.Equal(t, startOfMonth(*rolled.DueDate), *rolled.VisibleFrom)
	})

	t.Run("schedule moves in lockstep", func(t *testing.T) {
		due := at(now.AddDate(0, 0, -1), 9, 0)
		start := at(now.AddDate(0, 0, -1), 9, 0)
		end := at(now.AddDate(0, 0, -1), 10, 30)
		task := model.Task{Recurrence: model.RecurDaily, DueDate: &due, ScheduledStart: &start, ScheduledEnd: &end}

		rolled, missed := rollForward(task, now)
		assert.Equal(t, 1, missed)
		require.NotNil(t, rolled.ScheduledStart)
		require.NotNil(t, rolled.ScheduledEnd)
		assert.Equal(t, at(now, 9, 0), *rolled.ScheduledStart)
		assert.Equal(t, at(now, 10, 30), *rolled.ScheduledEnd)
	})

	t.Run("monthly month-end clamps instead of spilling over", func(t *testing.T) {
		due := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.Local)
		now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.Local)
		task := model.Task{Recurrence: model.RecurMonthly, DueDate: &due}

		rolled, missed := rollForward(task, now)
		assert.Equal(t, 1, missed)
		assert.Equal(t, time.Date(2026, time.February, 28, 9, 0, 0, 0, time.Local), *rolled.DueDate)
	})

	t.Run("non recurring is untouched", func(t *testing.T) {
		due := at(now.AddDate(0, 0, -5), 9, 0)
		task := model.Task{DueDate: &due}
		_, missed := rollForward(task, now)
		assert.Equal(t, 0, missed)
	})
}

func TestNextInstance(t *testing.T) {
	now := refDay
	due := at(now, 14, 0)

	t.Run("fresh uncompleted copy one unit out", func(t *testing.T) {
		task := model.Task{
			ID:         7,
			Title:      "water plants",
			Recurrence: model.RecurDaily,
			DueDate:    &due,
			Subtasks: []model.Subtask{
				{ID: 1, TaskID: 7, Title: "front room", Completed: true},
				{ID: 2, TaskID: 7, Title: "balcony"},
			},
		}

		next := nextInstance(task, now)
		assert.Zero(t, next.ID)
		assert.False(t, next.Completed)
		assert.Nil(t, next.CompletedAt)
		assert.Equal(t, due.AddDate(0, 0, 1), *next.DueDate)
		require.Len(t, next.Subtasks, 2)
		for _, sub := range next.Subtasks {
			assert.Zero(t, sub.ID)
			assert.False(t, sub.Completed)
			assert.Nil(t, sub.ScheduledStart)
		}
	})

	t.Run("schedule dropped without recurring schedule flag", func(t *testing.T) {
		start := at(now, 14, 0)
		end := at(now, 15, 0)
		task := model.Task{Recurrence: model.RecurDaily, DueDate: &due, ScheduledStart: &start, ScheduledEnd: &end, AlarmSet: true}

		next := nextInstance(task, now)
		assert.Nil(t, next.ScheduledStart)
		assert.Nil(t, next.ScheduledEnd)
		assert.False(t, next.AlarmSet)
	})

	t.Run("recurring schedule carries over with duration", func(t *testing.T) {
		start := at(now, 14, 0)
		end := at(now, 15, 30)
		task := model.Task{
			Recurrence:          model.RecurWeekly,
			DueDate:             &due,
			ScheduledStart:      &start,
			ScheduledEnd:        &end,
			IsRecurringSchedule: true,
		}

		next := nextInstance(task, now)
		require.NotNil(t, next.ScheduledStart)
		require.NotNil(t, next.ScheduledEnd)
		assert.Equal(t, start.AddDate(0, 0, 7), *next.ScheduledStart)
		assert.Equal(t, 90*time.Minute, next.ScheduledEnd.Sub(*next.ScheduledStart))
		assert.True(t, next.AlarmSet)
	})

	t.Run("yearly visibility gate", func(t *testing.T) {
		task := model.Task{Recurrence: model.RecurYearly, DueDate: &due}
		next := nextInstance(task, now)
		require.NotNil(t, next.VisibleFrom)
		assert.Equal(t, startOfMonth(*next.DueDate), *next.VisibleFrom)
	})
}

func TestNextOccurrenceMonthEnds(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 0, 0, 0, time.Local)
	}

	t.Run("monthly clamps and stays clamped", func(t *testing.T) {
		jan31 := day(2026, time.January, 31)
		feb28 := nextOccurrence(jan31, model.RecurMonthly)
		assert.Equal(t, day(2026, time.February, 28), feb28)
		assert.Equal(t, day(2026, time.March, 28), nextOccurrence(feb28, model.RecurMonthly))
	})

	t.Run("monthly thirty-day target", func(t *testing.T) {
		mar31 := day(2026, time.March, 31)
		assert.Equal(t, day(2026, time.April, 30), nextOccurrence(mar31, model.RecurMonthly))
	})

	t.Run("monthly mid-month unaffected", func(t *testing.T) {
		assert.Equal(t, day(2026, time.February, 15), nextOccurrence(day(2026, time.January, 15), model.RecurMonthly))
	})

	t.Run("yearly from leap day", func(t *testing.T) {
		feb29 := day(2024, time.February, 29)
		assert.Equal(t, day(2025, time.February, 28), nextOccurrence(feb29, model.RecurYearly))
	})

	t.Run("december wraps the year", func(t *testing.T) {
		dec31 := day(2026, time.December, 31)
		assert.Equal(t, day(2027, time.January, 31), nextOccurrence(dec31, model.RecurMonthly))
	})
}
