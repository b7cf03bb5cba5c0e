package service

import (
	"time"

	"dotodo/internal/model"
)

// Streak returns the current consecutive-day completion streak.
//
// The anchor is today if any task was completed today, otherwise yesterday
// (a streak survives until a full day is missed). From the anchor the count
// walks backward while each previous day has at least one completion.
func Streak(tasks []model.Task, today time.Time) int {
	days := make(map[time.Time]bool)
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		days[startOfDay(t.CompletedAt.In(today.Location()))] = true
	}

	anchor := startOfDay(today)
	if !days[anchor] {
		anchor = anchor.AddDate(0, 0, -1)
		if !days[anchor] {
			return 0
		}
	}

	streak := 0
	for day := anchor; days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}
