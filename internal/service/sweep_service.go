package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// SweepResult reports what the daily penalty pass changed.
type SweepResult struct {
	Penalty  int
	Messages []string // one line per affected task, or the reset notice
	Reset    bool
	Updated  []model.Task // recurring tasks rolled forward
	State    model.UserState
}

// SweepService runs the once-per-day overdue check: it charges penalties,
// rolls missed recurring tasks forward, and advances LastLogin.
type SweepService struct {
	taskRepo  *repository.TaskRepository
	stateRepo *repository.StateRepository
}

func NewSweepService(taskRepo *repository.TaskRepository, stateRepo *repository.StateRepository) *SweepService {
	return &SweepService{taskRepo: taskRepo, stateRepo: stateRepo}
}

// RunDailyCheck evaluates the penalty sweep for one user. It is a no-op
// unless the calendar day has advanced past LastLogin, so calling it on
// every tick or interaction is safe. Returns nil when nothing was charged.
func (s *SweepService) RunDailyCheck(ctx context.Context, user *model.User, now time.Time) (*SweepResult, error) {
	state, err := s.stateRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if !startOfDay(now).After(startOfDay(state.LastLogin.In(now.Location()))) {
		return nil, nil
	}

	if state.IsVacationMode {
		state.LastLogin = now
		if err := s.stateRepo.Save(ctx, state); err != nil {
			return nil, err
		}
		log.Debug().Uint("user", user.ID).Msg("sweep skipped, vacation mode")
		return nil, nil
	}

	tasks, err := s.taskRepo.ListActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result := sweepTransition(tasks, *state, now)

	if err := s.taskRepo.SaveAll(ctx, result.Updated); err != nil {
		return nil, err
	}
	*state = result.State
	if err := s.stateRepo.Save(ctx, state); err != nil {
		return nil, err
	}

	if result.Penalty == 0 && len(result.Updated) == 0 {
		return nil, nil
	}

	log.Info().
		Uint("user", user.ID).
		Int("penalty", result.Penalty).
		Int("rolled_forward", len(result.Updated)).
		Bool("reset", result.Reset).
		Msg("daily sweep applied")
	return result, nil
}

// sweepTransition is the pure sweep rule over a task snapshot. Routine
// tasks never accrue penalties. Non-recurring overdue tasks charge one
// point per day overdue, unweighted; recurring tasks charge per missed
// cycle weighted by priority and are rolled forward to their next
// occurrence with a visibility gate.
func sweepTransition(tasks []model.Task, state model.UserState, now time.Time) *SweepResult {
	result := &SweepResult{}
	today := startOfDay(now)

	for _, task := range tasks {
		if task.IsRoutine || task.Completed || task.DueDate == nil {
			continue
		}
		if !startOfDay(task.DueDate.In(now.Location())).Before(today) {
			continue
		}

		if task.IsRecurring() {
			rolled, missCount := rollForward(task, now)
			if missCount == 0 {
				continue
			}
			penalty := missedCyclePenalty * task.Priority.Multiplier() * missCount
			result.Penalty += penalty
			result.Updated = append(result.Updated, rolled)
			result.Messages = append(result.Messages,
				fmt.Sprintf("Missed %d %s cycle(s) of %q (-%d pts)", missCount, task.Recurrence, task.Title, penalty))
			continue
		}

		penalty := OverduePenalty(task.DueDate, now)
		if penalty > 0 {
			result.Penalty += penalty
			result.Messages = append(result.Messages,
				fmt.Sprintf("%q is %d day(s) overdue (-%d pts)", task.Title, penalty, penalty))
		}
	}

	newPoints := state.Points - result.Penalty
	if newPoints < pointsResetFloor {
		newPoints = 0
		result.Reset = true
		result.Messages = []string{fmt.Sprintf("Points dropped below %d. Reset to 0.", pointsResetFloor)}
	}
	applyPoints(&state, newPoints)
	state.LastLogin = now

	result.State = state
	return result
}
