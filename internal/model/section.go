package model

import "time"

// Section groups tasks by area (work, personal, groceries, etc.).
// Tasks without a section belong to the implicit "General" group.
type Section struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_section_title,unique"`
	Title     string `gorm:"index:idx_user_section_title,unique"`
	Color     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:SectionID"`
}

// GeneralSection is the display name for tasks without a section.
const GeneralSection = "General"
