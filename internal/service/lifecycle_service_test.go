package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

func newLifecycleEnv(t *testing.T) (*LifecycleService, *repository.TaskRepository, *repository.StateRepository, *model.User) {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db)
	taskRepo := repository.NewTaskRepository(db)
	stateRepo := repository.NewStateRepository(db)
	return NewLifecycleService(taskRepo, stateRepo), taskRepo, stateRepo, user
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	now := refDay

	t.Run("awards points and marks completed", func(t *testing.T) {
		svc, taskRepo, _, user := newLifecycleEnv(t)

		due := now.AddDate(0, 0, 2)
		task := model.Task{UserID: user.ID, Title: "write report", Priority: model.PriorityHigh, DueDate: &due}
		require.NoError(t, taskRepo.Create(ctx, &task))

		result, err := svc.CompleteTask(ctx, user, task.ID, now)
		require.NoError(t, err)

		// 2 days early, High: 2*3*2 + 30.
		assert.Equal(t, 42, result.PointsEarned)
		assert.True(t, result.Task.Completed)
		require.NotNil(t, result.Task.CompletedAt)
		assert.Nil(t, result.Next)

		stored, err := taskRepo.FindByID(ctx, user.ID, task.ID)
		require.NoError(t, err)
		assert.True(t, stored.Completed)
	})

	t.Run("subtasks cascade to completed", func(t *testing.T) {
		svc, taskRepo, _, user := newLifecycleEnv(t)

		task := model.Task{
			UserID: user.ID,
			Title:  "pack bags",
			Subtasks: []model.Subtask{
				{Title: "clothes"},
				{Title: "chargers", Completed: true},
			},
		}
		require.NoError(t, taskRepo.Create(ctx, &task))

		_, err := svc.CompleteTask(ctx, user, task.ID, now)
		require.NoError(t, err)

		stored, err := taskRepo.FindByID(ctx, user.ID, task.ID)
		require.NoError(t, err)
		require.Len(t, stored.Subtasks, 2)
		for _, sub := range stored.Subtasks {
			assert.True(t, sub.Completed)
		}
	})

	t.Run("recurring task spawns next occurrence", func(t *testing.T) {
		svc, taskRepo, _, user := newLifecycleEnv(t)

		due := at(now, 16, 0)
		task := model.Task{UserID: user.ID, Title: "water plants", Recurrence: model.RecurDaily, DueDate: &due}
		require.NoError(t, taskRepo.Create(ctx, &task))

		result, err := svc.CompleteTask(ctx, user, task.ID, now)
		require.NoError(t, err)
		require.NotNil(t, result.Next)
		assert.NotZero(t, result.Next.ID, "next occurrence persisted")
		assert.NotEqual(t, task.ID, result.Next.ID)
		assert.False(t, result.Next.Completed)

		all, err := taskRepo.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2, "completed record stays alongside the new occurrence")
	})

	t.Run("already completed rejected", func(t *testing.T) {
		svc, taskRepo, _, user := newLifecycleEnv(t)

		done := now.AddDate(0, 0, -1)
		task := model.Task{UserID: user.ID, Title: "old", Completed: true, CompletedAt: &done}
		require.NoError(t, taskRepo.Create(ctx, &task))

		_, err := svc.CompleteTask(ctx, user, task.ID, now)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("daily goal bonus claimed once per day", func(t *testing.T) {
		svc, taskRepo, stateRepo, user := newLifecycleEnv(t)

		state, err := stateRepo.GetOrCreate(ctx, user.ID)
		require.NoError(t, err)
		state.DailyGoal = 1
		require.NoError(t, stateRepo.Save(ctx, state))

		first := model.Task{UserID: user.ID, Title: "one"}
		second := model.Task{UserID: user.ID, Title: "two"}
		require.NoError(t, taskRepo.Create(ctx, &first))
		require.NoError(t, taskRepo.Create(ctx, &second))

		r1, err := svc.CompleteTask(ctx, user, first.ID, now)
		require.NoError(t, err)
		kinds := eventKinds(r1.Events)
		assert.Contains(t, kinds, EventDailyGoal)
		assert.GreaterOrEqual(t, r1.BonusPoints, dailyGoalBonus)

		r2, err := svc.CompleteTask(ctx, user, second.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.NotContains(t, eventKinds(r2.Events), EventDailyGoal)
	})

	t.Run("streak bonus on first completion of the day", func(t *testing.T) {
		svc, taskRepo, _, user := newLifecycleEnv(t)

		yesterday := now.AddDate(0, 0, -1)
		require.NoError(t, taskRepo.Create(ctx, &model.Task{
			UserID: user.ID, Title: "done yesterday", Completed: true, CompletedAt: &yesterday,
		}))
		task := model.Task{UserID: user.ID, Title: "today"}
		require.NoError(t, taskRepo.Create(ctx, &task))

		result, err := svc.CompleteTask(ctx, user, task.ID, now)
		require.NoError(t, err)
		assert.Equal(t, 2, result.NewStreak)
		assert.Contains(t, eventKinds(result.Events), EventStreak)
	})

	t.Run("level up event fires on crossing the boundary", func(t *testing.T) {
		svc, taskRepo, stateRepo, user := newLifecycleEnv(t)

		state, err := stateRepo.GetOrCreate(ctx, user.ID)
		require.NoError(t, err)
		state.Points = 95
		state.DailyGoal = 50 // keep the goal bonus out of the way
		require.NoError(t, stateRepo.Save(ctx, state))

		task := model.Task{UserID: user.ID, Title: "plain"}
		require.NoError(t, taskRepo.Create(ctx, &task))

		result, err := svc.CompleteTask(ctx, user, task.ID, now)
		require.NoError(t, err)
		assert.Contains(t, eventKinds(result.Events), EventLevelUp)
		assert.GreaterOrEqual(t, result.State.MaxLevelReached, 1)
	})

	t.Run("missing task errors", func(t *testing.T) {
		svc, _, _, user := newLifecycleEnv(t)
		_, err := svc.CompleteTask(ctx, user, 999, now)
		assert.Error(t, err)
	})
}

func eventKinds(events []Event) []EventKind {
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
