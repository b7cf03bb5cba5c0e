package model

import "time"

// RoutineScheduleType selects how a routine decides it is active.
type RoutineScheduleType string

const (
	RoutineManual RoutineScheduleType = "manual"
	RoutineWeekly RoutineScheduleType = "weekly"
)

// Routine is a named day-of-week-scoped grouping of recurring activities.
// Tasks flagged IsRoutine belong to exactly one routine and are excluded
// from penalty accrual and from default task views.
type Routine struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index"`
	Title          string
	ScheduleType   RoutineScheduleType `gorm:"default:manual"`
	ActiveDays     []int               `gorm:"serializer:json"` // 0 = Sunday ... 6 = Saturday
	IsActive       bool                `gorm:"default:true"`
	SuppressedDays []int               `gorm:"serializer:json"` // days taken over by another routine
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tasks          []Task `gorm:"foreignKey:RoutineID"`
}

// ActiveOn reports whether the routine claims the given weekday.
func (r Routine) ActiveOn(day time.Weekday) bool {
	if !r.IsActive {
		return false
	}
	for _, d := range r.ActiveDays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// DefaultRoutineTitle names the routine seeded for every user.
const DefaultRoutineTitle = "Daily Routine"
