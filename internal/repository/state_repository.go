package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"dotodo/internal/model"
)

// StateRepository manages the single per-user gamification record.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// GetOrCreate loads the user's state, creating the default record on first
// sight. Loading also backfills MaxLevelReached for records written before
// the field existed: it is raised to the level implied by current points,
// which restates the monotonic high-water invariant.
func (r *StateRepository) GetOrCreate(ctx context.Context, userID uint) (*model.UserState, error) {
	var state model.UserState
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ?", userID).First(&state).Error
	switch {
	case err == nil:
		if lvl := model.NumericLevelOf(state.Points); state.MaxLevelReached < lvl {
			state.MaxLevelReached = lvl
			if err := db.Model(&state).Update("max_level_reached", lvl).Error; err != nil {
				return nil, fmt.Errorf("backfill max level: %w", err)
			}
		}
		return &state, nil
	case err == gorm.ErrRecordNotFound:
		state = model.UserState{
			UserID:    userID,
			Rank:      model.RankPunctual,
			DailyGoal: 5,
			LastLogin: time.Now(),
		}
		if err := db.Create(&state).Error; err != nil {
			return nil, fmt.Errorf("create user state: %w", err)
		}
		return &state, nil
	default:
		return nil, fmt.Errorf("find user state: %w", err)
	}
}

// Save persists the full state record.
func (r *StateRepository) Save(ctx context.Context, state *model.UserState) error {
	if err := r.db.WithContext(ctx).Save(state).Error; err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	return nil
}
