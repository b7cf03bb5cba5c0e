package service

import (
	"context"
	"strings"
	"time"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title               string
	Note                string
	Priority            model.Priority
	Section             string
	DueDate             *time.Time
	ScheduledStart      *time.Time
	ScheduledEnd        *time.Time
	AlarmSet            bool
	Recurrence          model.Recurrence
	IsRecurringSchedule bool
	IsRoutine           bool
	RoutineID           *uint
	Subtasks            []string
}

// TaskService wraps task CRUD, validation, and scheduling.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	sectionRepo *repository.SectionRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, sectionRepo *repository.SectionRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, sectionRepo: sectionRepo}
}

// CreateTask validates the input and persists a new task. Validation
// failures reject the save before any write.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput, now time.Time) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.ScheduledStart != nil && input.ScheduledEnd != nil &&
		!input.ScheduledEnd.After(*input.ScheduledStart) {
		return nil, ErrScheduleOrder
	}
	if input.DueDate != nil && input.DueDate.Before(startOfDay(now)) {
		return nil, ErrPastDueDate
	}

	var sectionID *uint
	if input.Section != "" {
		section, err := s.sectionRepo.GetOrCreate(ctx, user.ID, strings.TrimSpace(input.Section), "gray")
		if err != nil {
			return nil, err
		}
		if section != nil {
			sectionID = &section.ID
		}
	}

	task := model.Task{
		UserID:              user.ID,
		SectionID:           sectionID,
		Title:               title,
		Note:                strings.TrimSpace(input.Note),
		Priority:            input.Priority,
		DueDate:             input.DueDate,
		ScheduledStart:      input.ScheduledStart,
		ScheduledEnd:        input.ScheduledEnd,
		AlarmSet:            input.AlarmSet,
		Recurrence:          input.Recurrence,
		IsRecurringSchedule: input.IsRecurringSchedule,
		IsRoutine:           input.IsRoutine,
		RoutineID:           input.RoutineID,
	}
	for _, title := range input.Subtasks {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		task.Subtasks = append(task.Subtasks, model.Subtask{Title: title})
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListVisible returns the user's active tasks for the standard views:
// routine tasks and tasks still behind their visibility gate are excluded.
func (s *TaskService) ListVisible(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsRoutine || !t.VisibleAt(now) {
			continue
		}
		visible = append(visible, t)
	}
	return visible, nil
}

// GetAll returns the user's full task snapshot, completed items included.
func (s *TaskService) GetAll(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// DeleteTask removes a task completely, subtasks included.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// ScheduleTask assigns [start, end) to a task (subtaskID zero) or one of
// its subtasks after checking the slot against every other active interval.
// On conflict nothing changes and ErrScheduleConflict is returned.
func (s *TaskService) ScheduleTask(ctx context.Context, user *model.User, taskID, subtaskID uint, start, end time.Time) error {
	if !end.After(start) {
		return ErrScheduleOrder
	}

	tasks, err := s.taskRepo.ListActive(ctx, user.ID)
	if err != nil {
		return err
	}
	if !CanSchedule(tasks, taskID, subtaskID, start, end) {
		return ErrScheduleConflict
	}

	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}

	if subtaskID == 0 {
		task.ScheduledStart = &start
		task.ScheduledEnd = &end
		return s.taskRepo.Save(ctx, task)
	}

	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].ScheduledStart = &start
			task.Subtasks[i].ScheduledEnd = &end
			return s.taskRepo.SaveSubtask(ctx, &task.Subtasks[i])
		}
	}
	return ErrSubtaskNotFound
}

// AutoSchedule gives every unscheduled, non-routine active task a one-hour
// slot at its due date, or today at 17:00 when it has none. Returns how
// many tasks were scheduled.
func (s *TaskService) AutoSchedule(ctx context.Context, user *model.User, now time.Time) (int, error) {
	tasks, err := s.taskRepo.ListActive(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	var updated []model.Task
	for _, t := range tasks {
		if t.IsRoutine || t.ScheduledStart != nil {
			continue
		}
		start := startOfDay(now).Add(17 * time.Hour)
		if t.DueDate != nil {
			start = *t.DueDate
		} else {
			due := start
			t.DueDate = &due
		}
		end := start.Add(time.Hour)
		t.ScheduledStart = &start
		t.ScheduledEnd = &end
		updated = append(updated, t)
	}

	if err := s.taskRepo.SaveAll(ctx, updated); err != nil {
		return 0, err
	}
	return len(updated), nil
}

// ToggleAlarm flips the alarm flag. Arming resets the recurring-schedule
// flag so propagation stays an explicit opt-in.
func (s *TaskService) ToggleAlarm(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	task.AlarmSet = !task.AlarmSet
	if task.AlarmSet {
		task.IsRecurringSchedule = false
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleRecurringSchedule flips schedule propagation for the next
// occurrence.
func (s *TaskService) ToggleRecurringSchedule(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	task.IsRecurringSchedule = !task.IsRecurringSchedule
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleSubtask flips one subtask's completion independently of the parent.
func (s *TaskService) ToggleSubtask(ctx context.Context, user *model.User, taskID, subtaskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].Completed = !task.Subtasks[i].Completed
			if err := s.taskRepo.SaveSubtask(ctx, &task.Subtasks[i]); err != nil {
				return nil, err
			}
			return task, nil
		}
	}
	return nil, ErrSubtaskNotFound
}

// DeleteSubtask removes one subtask from a task.
func (s *TaskService) DeleteSubtask(ctx context.Context, user *model.User, taskID, subtaskID uint) error {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return err
	}
	return s.taskRepo.DeleteSubtask(ctx, taskID, subtaskID)
}
