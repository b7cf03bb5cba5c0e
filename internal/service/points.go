package service

import (
	"time"

	"dotodo/internal/model"
)

// Point economy constants. All defaulting of optional fields happens here,
// not at call sites.
const (
	basePointsPerMultiplier = 10
	missedCyclePenalty      = 5  // per missed recurrence cycle, per priority unit
	dailyGoalBonus          = 10 // once per calendar day
	streakBonusPoints       = 5  // when a completion grows the streak
	pointsResetFloor        = -5000
	defaultDailyGoal        = 5
)

// CompletionPoints computes the points awarded for completing a task now.
// Early completion pays 2 points per day left per priority unit on top of
// the base; same-day pays the base; late completion pays 1.5x the base.
// The 1.5x product is exact integer math because the base is always a
// multiple of 10.
func CompletionPoints(dueDate *time.Time, priority model.Priority, now time.Time) int {
	multiplier := priority.Multiplier()
	base := basePointsPerMultiplier * multiplier

	if dueDate == nil {
		return base
	}

	daysLeft := daysBetween(*dueDate, now)
	switch {
	case daysLeft > 0:
		return daysLeft*multiplier*2 + base
	case daysLeft == 0:
		return base
	default:
		return base * 3 / 2
	}
}

// OverduePenalty is the daily-sweep charge for a non-recurring overdue
// task: one point per day overdue, deliberately unweighted by priority.
func OverduePenalty(dueDate *time.Time, now time.Time) int {
	if dueDate == nil {
		return 0
	}
	daysOverdue := daysBetween(now, *dueDate)
	if daysOverdue < 0 {
		return 0
	}
	return daysOverdue
}

// applyPoints mutates the state's point total and re-derives the rank and
// the numeric-level high-water mark. Point loss never lowers
// MaxLevelReached.
func applyPoints(state *model.UserState, newPoints int) {
	state.Points = newPoints
	state.Rank = model.RankOf(newPoints)
	if lvl := model.NumericLevelOf(newPoints); lvl > state.MaxLevelReached {
		state.MaxLevelReached = lvl
	}
}
