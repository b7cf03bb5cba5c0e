package service

import "errors"

// Validation and conflict errors surfaced at the save/schedule boundary.
// No state is mutated when one of these is returned.
var (
	ErrTitleRequired    = errors.New("task title is required")
	ErrScheduleOrder    = errors.New("end time must be after start time")
	ErrPastDueDate      = errors.New("due date is already in the past")
	ErrScheduleConflict = errors.New("time slot overlaps another scheduled item")
	ErrAlreadyCompleted = errors.New("task is already completed")
	ErrSubtaskNotFound  = errors.New("subtask not found")
)
