package model

import "time"

// RankTier is one of the five coarse reputation bands derived from points.
type RankTier string

const (
	RankProactive      RankTier = "Proactive"
	RankPrepared       RankTier = "Prepared"
	RankPunctual       RankTier = "Punctual"
	RankPostponer      RankTier = "Postponer"
	RankProcrastinator RankTier = "Procrastinator"
)

// RankOf maps a point total to its rank tier. Boundaries are inclusive
// on the lower bound of each tier.
func RankOf(points int) RankTier {
	switch {
	case points >= 1000:
		return RankProactive
	case points >= 500:
		return RankPrepared
	case points >= 0:
		return RankPunctual
	case points >= -500:
		return RankPostponer
	default:
		return RankProcrastinator
	}
}

// NumericLevelOf is the fine-grained progression axis: one level per
// 100 points, floored at level 0 for negative totals.
func NumericLevelOf(points int) int {
	if points < 0 {
		return 0
	}
	return points / 100
}

// UserState is the running gamification aggregate for one user.
// There is exactly one record per user; it is updated in place and
// never deleted.
type UserState struct {
	ID                 uint     `gorm:"primaryKey"`
	UserID             uint     `gorm:"uniqueIndex"`
	Points             int      `gorm:"default:0"`
	Rank               RankTier `gorm:"default:Punctual"`
	MaxLevelReached    int      `gorm:"default:0"` // high-water numeric level, gates unlocks
	LastLogin          time.Time
	IsVacationMode     bool `gorm:"default:false"`
	DailyGoal          int  `gorm:"default:5"`
	LastDailyGoalClaim *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
