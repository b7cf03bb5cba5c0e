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

type sweepEnv struct {
	svc       *SweepService
	taskRepo  *repository.TaskRepository
	stateRepo *repository.StateRepository
	user      *model.User
}

// newSweepEnv prepares a user whose last login was the day before refDay,
// so a sweep at refDay is due.
func newSweepEnv(t *testing.T) sweepEnv {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db)
	taskRepo := repository.NewTaskRepository(db)
	stateRepo := repository.NewStateRepository(db)

	state, err := stateRepo.GetOrCreate(context.Background(), user.ID)
	require.NoError(t, err)
	state.LastLogin = refDay.AddDate(0, 0, -1)
	require.NoError(t, stateRepo.Save(context.Background(), state))

	return sweepEnv{
		svc:       NewSweepService(taskRepo, stateRepo),
		taskRepo:  taskRepo,
		stateRepo: stateRepo,
		user:      user,
	}
}

func (e sweepEnv) setState(t *testing.T, mutate func(*model.UserState)) {
	t.Helper()
	state, err := e.stateRepo.GetOrCreate(context.Background(), e.user.ID)
	require.NoError(t, err)
	mutate(state)
	require.NoError(t, e.stateRepo.Save(context.Background(), state))
}

func TestRunDailyCheck(t *testing.T) {
	ctx := context.Background()
	now := refDay

	t.Run("charges overdue non-recurring tasks", func(t *testing.T) {
		env := newSweepEnv(t)

		due := now.AddDate(0, 0, -3)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "taxes", Priority: model.PriorityHigh, DueDate: &due,
		}))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 3, result.Penalty, "one point per day, unweighted by priority")
		assert.False(t, result.Reset)
		require.Len(t, result.Messages, 1)
		assert.Contains(t, result.Messages[0], "taxes")

		state, err := env.stateRepo.GetOrCreate(ctx, env.user.ID)
		require.NoError(t, err)
		assert.Equal(t, -3, state.Points)
		assert.Equal(t, model.RankPostponer, state.Rank)
	})

	t.Run("rolls recurring tasks forward with cycle penalty", func(t *testing.T) {
		env := newSweepEnv(t)

		due := at(now.AddDate(0, 0, -3), 9, 0)
		task := model.Task{
			UserID: env.user.ID, Title: "standup notes",
			Priority: model.PriorityMedium, Recurrence: model.RecurDaily, DueDate: &due,
		}
		require.NoError(t, env.taskRepo.Create(ctx, &task))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		require.NotNil(t, result)
		// 3 missed cycles, Medium: 5*2*3.
		assert.Equal(t, 30, result.Penalty)
		require.Len(t, result.Updated, 1)

		stored, err := env.taskRepo.FindByID(ctx, env.user.ID, task.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.DueDate)
		assert.False(t, startOfDay(*stored.DueDate).Before(startOfDay(now)), "due date caught up")
		assert.False(t, stored.Completed)
	})

	t.Run("second run on the same day is a no-op", func(t *testing.T) {
		env := newSweepEnv(t)

		due := now.AddDate(0, 0, -1)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "late", DueDate: &due,
		}))

		first, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := env.svc.RunDailyCheck(ctx, env.user, now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, second, "penalties accrue at most once per day")
	})

	t.Run("vacation mode skips penalties but advances the clock", func(t *testing.T) {
		env := newSweepEnv(t)
		env.setState(t, func(s *model.UserState) { s.IsVacationMode = true })

		due := now.AddDate(0, 0, -5)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "ignored", DueDate: &due,
		}))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		assert.Nil(t, result)

		state, err := env.stateRepo.GetOrCreate(ctx, env.user.ID)
		require.NoError(t, err)
		assert.Zero(t, state.Points)
		assert.True(t, sameDay(state.LastLogin, now))
	})

	t.Run("routine tasks never accrue penalties", func(t *testing.T) {
		env := newSweepEnv(t)

		due := now.AddDate(0, 0, -4)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "morning run", IsRoutine: true, DueDate: &due,
		}))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("resets to zero below the floor", func(t *testing.T) {
		env := newSweepEnv(t)
		env.setState(t, func(s *model.UserState) { s.Points = -4999 })

		due := now.AddDate(0, 0, -2)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "the last straw", DueDate: &due,
		}))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Reset)
		require.Len(t, result.Messages, 1)
		assert.Contains(t, result.Messages[0], "Reset to 0")

		state, err := env.stateRepo.GetOrCreate(ctx, env.user.ID)
		require.NoError(t, err)
		assert.Zero(t, state.Points)
		assert.Equal(t, model.RankPunctual, state.Rank)
	})

	t.Run("nothing overdue returns nil", func(t *testing.T) {
		env := newSweepEnv(t)

		due := now.AddDate(0, 0, 2)
		require.NoError(t, env.taskRepo.Create(ctx, &model.Task{
			UserID: env.user.ID, Title: "future", DueDate: &due,
		}))

		result, err := env.svc.RunDailyCheck(ctx, env.user, now)
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}
