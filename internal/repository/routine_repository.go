package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dotodo/internal/model"
)

// RoutineRepository manages routines.
type RoutineRepository struct {
	db *gorm.DB
}

func NewRoutineRepository(db *gorm.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) Create(ctx context.Context, routine *model.Routine) error {
	if err := r.db.WithContext(ctx).Create(routine).Error; err != nil {
		return fmt.Errorf("create routine: %w", err)
	}
	return nil
}

func (r *RoutineRepository) ListByUser(ctx context.Context, userID uint) ([]model.Routine, error) {
	var routines []model.Routine
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC").Find(&routines).Error; err != nil {
		return nil, err
	}
	return routines, nil
}

func (r *RoutineRepository) FindByID(ctx context.Context, userID, routineID uint) (*model.Routine, error) {
	var routine model.Routine
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, routineID).
		First(&routine).Error; err != nil {
		return nil, err
	}
	return &routine, nil
}

// SaveAll persists a batch of routines; the activation rules rewrite
// sibling routines together with the one being updated.
func (r *RoutineRepository) SaveAll(ctx context.Context, routines []model.Routine) error {
	if len(routines) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range routines {
			if err := tx.Save(&routines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save routines: %w", err)
	}
	return nil
}

func (r *RoutineRepository) Delete(ctx context.Context, userID, routineID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, routineID).
		Delete(&model.Routine{}).Error; err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	return nil
}
