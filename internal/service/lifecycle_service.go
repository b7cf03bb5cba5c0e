package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// EventKind tags a user-visible outcome of a lifecycle transition.
type EventKind string

const (
	EventDailyGoal   EventKind = "daily_goal"
	EventStreak      EventKind = "streak"
	EventLevelUp     EventKind = "level_up"
	EventRankUp      EventKind = "rank_up"
	EventPointsReset EventKind = "points_reset"
)

// Event is a message-bearing outcome produced alongside a transition.
type Event struct {
	Kind    EventKind
	Message string
}

// CompletionResult reports everything a completion changed.
type CompletionResult struct {
	Task         model.Task  // the original, now completed
	Next         *model.Task // regenerated occurrence for recurring tasks
	PointsEarned int
	BonusPoints  int
	NewStreak    int
	State        model.UserState
	Events       []Event
}

// LifecycleService owns the completion transition: point awards, bonuses,
// recurrence regeneration, and the aggregate user state.
type LifecycleService struct {
	taskRepo  *repository.TaskRepository
	stateRepo *repository.StateRepository
}

func NewLifecycleService(taskRepo *repository.TaskRepository, stateRepo *repository.StateRepository) *LifecycleService {
	return &LifecycleService{taskRepo: taskRepo, stateRepo: stateRepo}
}

// CompleteTask commits the completion of a task: awards points and bonuses,
// regenerates the next occurrence for recurring tasks, and updates the user
// state. The original task stays in the collection as a completed record
// with all subtasks forced completed.
func (s *LifecycleService) CompleteTask(ctx context.Context, user *model.User, taskID uint, now time.Time) (*CompletionResult, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	state, err := s.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result, err := completeTransition(tasks, *state, taskID, now)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, &result.Task); err != nil {
		return nil, err
	}
	if result.Next != nil {
		if err := s.taskRepo.Create(ctx, result.Next); err != nil {
			return nil, err
		}
	}
	*state = result.State
	if err := s.stateRepo.Save(ctx, state); err != nil {
		return nil, err
	}

	evt := log.Info().
		Uint("task", result.Task.ID).
		Uint("user", user.ID).
		Int("points_earned", result.PointsEarned).
		Int("bonus", result.BonusPoints).
		Int("total", state.Points)
	if result.Next != nil {
		evt = evt.Str("recurrence", string(result.Task.Recurrence))
	}
	evt.Msg("task completed")

	return result, nil
}

// completeTransition is the pure completion rule: it reads a snapshot of
// the task collection and user state and returns the replacement values
// without touching storage.
func completeTransition(tasks []model.Task, state model.UserState, taskID uint, now time.Time) (*CompletionResult, error) {
	var task *model.Task
	for i := range tasks {
		if tasks[i].ID == taskID {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		return nil, fmt.Errorf("task %d: not found", taskID)
	}
	if task.Completed {
		return nil, ErrAlreadyCompleted
	}

	result := &CompletionResult{
		PointsEarned: CompletionPoints(task.DueDate, task.Priority, now),
	}

	// Daily goal: this completion counts toward today's total, one claim
	// per calendar day.
	completedToday := 1
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil && sameDay(now, *t.CompletedAt) {
			completedToday++
		}
	}
	goal := state.DailyGoal
	if goal <= 0 {
		goal = defaultDailyGoal
	}
	claimedToday := state.LastDailyGoalClaim != nil && sameDay(now, *state.LastDailyGoalClaim)
	if completedToday >= goal && !claimedToday {
		result.BonusPoints += dailyGoalBonus
		claim := now
		state.LastDailyGoalClaim = &claim
		result.Events = append(result.Events, Event{
			Kind:    EventDailyGoal,
			Message: fmt.Sprintf("🎉 Daily goal reached! (+%d pts)", dailyGoalBonus),
		})
	}

	// Streak: compare against the streak with this task hypothetically done.
	oldStreak := Streak(tasks, now)
	completedAt := now
	completed := *task
	completed.Completed = true
	completed.CompletedAt = &completedAt
	for i := range completed.Subtasks {
		completed.Subtasks[i].Completed = true
	}

	withCompletion := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == taskID {
			withCompletion = append(withCompletion, completed)
			continue
		}
		withCompletion = append(withCompletion, t)
	}
	result.NewStreak = Streak(withCompletion, now)
	if result.NewStreak > oldStreak {
		result.BonusPoints += streakBonusPoints
		result.Events = append(result.Events, Event{
			Kind:    EventStreak,
			Message: fmt.Sprintf("🔥 Streak increased to %d! (+%d pts)", result.NewStreak, streakBonusPoints),
		})
	}

	oldLevel := model.NumericLevelOf(state.Points)
	oldRank := state.Rank
	applyPoints(&state, state.Points+result.PointsEarned+result.BonusPoints)
	if newLevel := model.NumericLevelOf(state.Points); newLevel > oldLevel {
		result.Events = append(result.Events, Event{
			Kind:    EventLevelUp,
			Message: fmt.Sprintf("⬆️ Level up! You are now level %d.", newLevel),
		})
	}
	if state.Rank != oldRank && state.Points > oldLevel*100 {
		result.Events = append(result.Events, Event{
			Kind:    EventRankUp,
			Message: fmt.Sprintf("🏅 New rank: %s", state.Rank),
		})
	}

	if task.IsRecurring() && task.DueDate != nil {
		next := nextInstance(*task, now)
		result.Next = &next
	}

	result.Task = completed
	result.State = state
	return result, nil
}
