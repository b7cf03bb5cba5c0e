package service

import "time"

// startOfDay truncates an instant to midnight in its location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfMonth truncates an instant to the first of its month.
func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// daysBetween returns whole calendar days a minus b (negative when a is
// earlier). Both instants are truncated to their day first; the rounding
// absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	diff := startOfDay(a).Sub(startOfDay(b.In(a.Location())))
	hours := diff.Hours()
	if hours >= 0 {
		return int((hours + 12) / 24)
	}
	return -int((-hours + 12) / 24)
}

// sameDay reports whether two instants fall on the same calendar day,
// evaluated in a's location.
func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
