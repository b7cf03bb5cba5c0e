package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// RoutineService manages routines and the weekday-ownership rules between
// them: at most one active routine claims any given weekday.
type RoutineService struct {
	routineRepo *repository.RoutineRepository
	taskRepo    *repository.TaskRepository
}

func NewRoutineService(routineRepo *repository.RoutineRepository, taskRepo *repository.TaskRepository) *RoutineService {
	return &RoutineService{routineRepo: routineRepo, taskRepo: taskRepo}
}

// EnsureDefault seeds the default routine on first contact and attaches it
// to any routine-flagged task that lost its routine reference.
func (s *RoutineService) EnsureDefault(ctx context.Context, user *model.User) (*model.Routine, error) {
	routines, err := s.routineRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var def *model.Routine
	if len(routines) == 0 {
		def = &model.Routine{
			UserID:       user.ID,
			Title:        model.DefaultRoutineTitle,
			ScheduleType: model.RoutineManual,
			ActiveDays:   []int{},
			IsActive:     true,
		}
		if err := s.routineRepo.Create(ctx, def); err != nil {
			return nil, err
		}
		log.Debug().Uint("user", user.ID).Msg("default routine created")
	} else {
		def = &routines[0]
	}

	if err := s.taskRepo.AssignRoutine(ctx, user.ID, def.ID); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *RoutineService) List(ctx context.Context, user *model.User) ([]model.Routine, error) {
	return s.routineRepo.ListByUser(ctx, user.ID)
}

func (s *RoutineService) Create(ctx context.Context, user *model.User, routine *model.Routine) error {
	routine.UserID = user.ID
	return s.routineRepo.Create(ctx, routine)
}

// Update applies a routine change and rebalances weekday ownership across
// the user's routines.
func (s *RoutineService) Update(ctx context.Context, user *model.User, updated model.Routine) ([]model.Routine, error) {
	routines, err := s.routineRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	rebalanced := rebalanceRoutines(routines, updated)
	if err := s.routineRepo.SaveAll(ctx, rebalanced); err != nil {
		return nil, err
	}
	return rebalanced, nil
}

// Delete removes a routine together with the tasks it owns.
func (s *RoutineService) Delete(ctx context.Context, user *model.User, routineID uint) error {
	if err := s.taskRepo.DeleteByRoutine(ctx, user.ID, routineID); err != nil {
		return err
	}
	return s.routineRepo.Delete(ctx, user.ID, routineID)
}

// rebalanceRoutines is the pure ownership rule. Activating a routine takes
// its weekdays away from other active routines (they remember them as
// suppressed); afterwards any suppressed day no longer claimed by anyone is
// restored to the first active routine remembering it.
func rebalanceRoutines(routines []model.Routine, updated model.Routine) []model.Routine {
	next := make([]model.Routine, len(routines))
	for i, r := range routines {
		if r.ID == updated.ID {
			next[i] = updated
			continue
		}
		next[i] = r
	}

	if updated.IsActive {
		for i := range next {
			r := &next[i]
			if r.ID == updated.ID || !r.IsActive {
				continue
			}
			conflicts := intersectDays(r.ActiveDays, updated.ActiveDays)
			if len(conflicts) == 0 {
				continue
			}
			r.ActiveDays = subtractDays(r.ActiveDays, conflicts)
			r.SuppressedDays = uniqueSortedDays(append(r.SuppressedDays, conflicts...))
			if len(r.ActiveDays) > 0 {
				r.ScheduleType = model.RoutineWeekly
			} else {
				r.ScheduleType = model.RoutineManual
			}
		}
	}

	claimed := make(map[int]bool)
	for _, r := range next {
		if !r.IsActive {
			continue
		}
		for _, d := range r.ActiveDays {
			claimed[d] = true
		}
	}

	for i := range next {
		r := &next[i]
		if !r.IsActive || len(r.SuppressedDays) == 0 {
			continue
		}
		var restore []int
		for _, d := range r.SuppressedDays {
			if !claimed[d] {
				restore = append(restore, d)
			}
		}
		if len(restore) == 0 {
			continue
		}
		for _, d := range restore {
			claimed[d] = true
		}
		r.ActiveDays = uniqueSortedDays(append(r.ActiveDays, restore...))
		r.SuppressedDays = subtractDays(r.SuppressedDays, restore)
		r.ScheduleType = model.RoutineWeekly
	}

	return next
}

func intersectDays(a, b []int) []int {
	in := make(map[int]bool, len(b))
	for _, d := range b {
		in[d] = true
	}
	var out []int
	for _, d := range a {
		if in[d] {
			out = append(out, d)
		}
	}
	return out
}

func subtractDays(a, b []int) []int {
	drop := make(map[int]bool, len(b))
	for _, d := range b {
		drop[d] = true
	}
	out := make([]int, 0, len(a))
	for _, d := range a {
		if !drop[d] {
			out = append(out, d)
		}
	}
	return out
}

func uniqueSortedDays(days []int) []int {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
