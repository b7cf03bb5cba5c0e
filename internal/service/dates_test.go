package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	base := refDay

	assert.Equal(t, 0, daysBetween(base, base))
	assert.Equal(t, 0, daysBetween(at(base, 23, 59), at(base, 0, 0)), "same calendar day regardless of clock")
	assert.Equal(t, 1, daysBetween(base.AddDate(0, 0, 1), base))
	assert.Equal(t, -3, daysBetween(base, base.AddDate(0, 0, 3)))
	assert.Equal(t, 31, daysBetween(base.AddDate(0, 1, 0), base), "March has 31 days")
}

func TestStartOfDay(t *testing.T) {
	got := startOfDay(at(refDay, 17, 45))
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, refDay.Day(), got.Day())
}

func TestStartOfMonth(t *testing.T) {
	got := startOfMonth(refDay)
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, refDay.Month(), got.Month())
	assert.Equal(t, 0, got.Hour())
}

func TestSameDay(t *testing.T) {
	assert.True(t, sameDay(at(refDay, 1, 0), at(refDay, 23, 0)))
	assert.False(t, sameDay(refDay, refDay.AddDate(0, 0, 1)))
	assert.False(t, sameDay(refDay, refDay.AddDate(-1, 0, 0)))
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("08:30")
	assert.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 30, m)

	_, _, err = parseClock("25:00")
	assert.Error(t, err)
	_, _, err = parseClock("nope")
	assert.Error(t, err)
}
