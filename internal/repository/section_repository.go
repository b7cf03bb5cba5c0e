package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dotodo/internal/model"
)

// SectionRepository manages task sections.
type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) GetOrCreate(ctx context.Context, userID uint, title, color string) (*model.Section, error) {
	if title == "" {
		return nil, nil
	}

	var section model.Section
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND title = ?", userID, title).First(&section).Error
	switch {
	case err == nil:
		return &section, nil
	case err == gorm.ErrRecordNotFound:
		var position int64
		db.Model(&model.Section{}).Where("user_id = ?", userID).Count(&position)
		section = model.Section{UserID: userID, Title: title, Color: color, Position: int(position)}
		if err := db.Create(&section).Error; err != nil {
			return nil, fmt.Errorf("create section: %w", err)
		}
		return &section, nil
	default:
		return nil, fmt.Errorf("find section: %w", err)
	}
}

func (r *SectionRepository) ListByUser(ctx context.Context, userID uint) ([]model.Section, error) {
	var sections []model.Section
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC, title ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *SectionRepository) GetByID(ctx context.Context, id uint) (*model.Section, error) {
	var section model.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *SectionRepository) Delete(ctx context.Context, userID, sectionID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, sectionID).
		Delete(&model.Section{}).Error; err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
