package model

import "time"

// Priority weights how much a task is worth.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityNone   Priority = ""
)

// Multiplier returns the point weight for a priority.
// An unset priority scores as Low.
func (p Priority) Multiplier() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Label is the display name used by filters; unset shows as "None".
func (p Priority) Label() string {
	if p == PriorityNone {
		return "None"
	}
	return string(p)
}

// Recurrence is the unit a task regenerates on.
type Recurrence string

const (
	RecurNone    Recurrence = ""
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

// Task represents a single item in the planner.
type Task struct {
	ID                  uint  `gorm:"primaryKey"`
	UserID              uint  `gorm:"index"`
	SectionID           *uint `gorm:"index"`
	Title               string
	Note                string
	Priority            Priority
	DueDate             *time.Time
	ScheduledStart      *time.Time
	ScheduledEnd        *time.Time
	Completed           bool `gorm:"default:false"`
	CompletedAt         *time.Time
	AlarmSet            bool       `gorm:"default:false"`
	Recurrence          Recurrence // empty for one-off tasks
	IsRecurringSchedule bool       `gorm:"default:false"`
	VisibleFrom         *time.Time
	IsRoutine           bool      `gorm:"default:false"`
	RoutineID           *uint     `gorm:"index"`
	Subtasks            []Subtask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsRecurring reports whether the task regenerates itself.
func (t Task) IsRecurring() bool {
	return t.Recurrence != RecurNone
}

// VisibleAt reports whether the task has passed its visibility gate.
func (t Task) VisibleAt(now time.Time) bool {
	if t.VisibleFrom == nil {
		return true
	}
	v := now.Location()
	from := t.VisibleFrom.In(v)
	ny, nd := now.Year(), now.YearDay()
	return now.After(from) || ny == from.Year() && nd == from.YearDay()
}

// Subtask is a child step of a task. Its completion and schedule are
// independent of the parent until the parent completes.
type Subtask struct {
	ID             uint `gorm:"primaryKey"`
	TaskID         uint `gorm:"index"`
	Title          string
	Completed      bool `gorm:"default:false"`
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
