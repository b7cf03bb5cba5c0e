package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// AlarmService finds tasks whose scheduled start matches the current
// minute. Each (weekday, hour, minute) key is consumed at most once per
// user, so a fast tick never raises the same alarm twice.
type AlarmService struct {
	taskRepo    *repository.TaskRepository
	routineRepo *repository.RoutineRepository

	mu          sync.Mutex
	lastChecked map[uint]string
}

func NewAlarmService(taskRepo *repository.TaskRepository, routineRepo *repository.RoutineRepository) *AlarmService {
	return &AlarmService{
		taskRepo:    taskRepo,
		routineRepo: routineRepo,
		lastChecked: make(map[uint]string),
	}
}

// DueAlarms returns the alarms to raise for one user at this tick.
// Re-entrant calls within the same minute are no-ops once an alarm has
// been reported for it.
func (s *AlarmService) DueAlarms(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error) {
	key := minuteKey(now)
	s.mu.Lock()
	seen := s.lastChecked[user.ID] == key
	s.mu.Unlock()
	if seen {
		return nil, nil
	}

	tasks, err := s.taskRepo.ListActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	routines, err := s.routineRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	matches := matchAlarms(tasks, routines, now)
	if len(matches) > 0 {
		s.mu.Lock()
		s.lastChecked[user.ID] = key
		s.mu.Unlock()
	}
	return matches, nil
}

// matchAlarms is the pure matching rule. A task qualifies when its alarm is
// armed, it is not completed, and its scheduled start matches the current
// hour and minute. Non-routine tasks must be scheduled for today; routine
// tasks require their owning routine to be active and claiming today's
// weekday.
func matchAlarms(tasks []model.Task, routines []model.Routine, now time.Time) []model.Task {
	activeRoutines := make(map[uint]bool)
	for _, r := range routines {
		if r.ActiveOn(now.Weekday()) {
			activeRoutines[r.ID] = true
		}
	}

	var matches []model.Task
	for _, t := range tasks {
		if !t.AlarmSet || t.ScheduledStart == nil || t.Completed {
			continue
		}
		start := t.ScheduledStart.In(now.Location())
		if start.Hour() != now.Hour() || start.Minute() != now.Minute() {
			continue
		}
		if t.IsRoutine {
			if t.RoutineID == nil || !activeRoutines[*t.RoutineID] {
				continue
			}
		} else if !sameDay(now, start) {
			continue
		}
		matches = append(matches, t)
	}
	return matches
}

func minuteKey(now time.Time) string {
	return fmt.Sprintf("%d-%d:%d", int(now.Weekday()), now.Hour(), now.Minute())
}
