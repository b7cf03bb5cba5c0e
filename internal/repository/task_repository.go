package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dotodo/internal/model"
)

// TaskRepository handles CRUD for tasks and their subtasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns every task for the user, subtasks included.
// The lifecycle engine needs the full snapshot: completed tasks feed the
// streak calculator and the daily-goal counter.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Subtasks").
		Where("user_id = ?", userID).
		Order("due_date, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListActive returns non-completed tasks for the user, subtasks included.
func (r *TaskRepository) ListActive(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Subtasks").
		Where("user_id = ? AND completed = ?", userID, false).
		Order("due_date, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("Subtasks").
		Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Save persists the task and its subtasks.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).
		Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// SaveAll persists a batch of tasks in one transaction. The penalty sweep
// uses this so a partially applied sweep is never observable.
func (r *TaskRepository) SaveAll(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tasks {
			if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).
				Save(&tasks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Delete removes a task for the given user together with its subtasks.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Subtask{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DeleteByRoutine removes all tasks belonging to a routine.
func (r *TaskRepository) DeleteByRoutine(ctx context.Context, userID, routineID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND routine_id = ?", userID, routineID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete routine tasks: %w", err)
	}
	return nil
}

// DetachSection clears the section reference from all tasks in a section.
func (r *TaskRepository) DetachSection(ctx context.Context, userID, sectionID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND section_id = ?", userID, sectionID).
		Update("section_id", nil).Error; err != nil {
		return fmt.Errorf("detach section: %w", err)
	}
	return nil
}

// AssignRoutine backfills the routine id on routine-flagged tasks that lack
// one. Used by the load-time migration.
func (r *TaskRepository) AssignRoutine(ctx context.Context, userID, routineID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND is_routine = ? AND routine_id IS NULL", userID, true).
		Update("routine_id", routineID).Error; err != nil {
		return fmt.Errorf("assign routine: %w", err)
	}
	return nil
}

// SaveSubtask persists a single subtask.
func (r *TaskRepository) SaveSubtask(ctx context.Context, sub *model.Subtask) error {
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("save subtask: %w", err)
	}
	return nil
}

// DeleteSubtask removes one subtask from a task.
func (r *TaskRepository) DeleteSubtask(ctx context.Context, taskID, subtaskID uint) error {
	if err := r.db.WithContext(ctx).Where("task_id = ? AND id = ?", taskID, subtaskID).
		Delete(&model.Subtask{}).Error; err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}
