package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskRef(t *testing.T) {
	t.Run("bare task id", func(t *testing.T) {
		taskID, subtaskID, err := parseTaskRef("12")
		require.NoError(t, err)
		assert.Equal(t, uint(12), taskID)
		assert.Zero(t, subtaskID)
	})

	t.Run("task and subtask", func(t *testing.T) {
		taskID, subtaskID, err := parseTaskRef(" 12.3 ")
		require.NoError(t, err)
		assert.Equal(t, uint(12), taskID)
		assert.Equal(t, uint(3), subtaskID)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "12.x", ".", "12.", "-1"} {
			_, _, err := parseTaskRef(raw)
			assert.Error(t, err, "raw=%q", raw)
		}
	})
}

func TestParseDays(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		days, err := parseDays("mon,wed,fri")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 5}, days)
	})

	t.Run("numbers and duplicates", func(t *testing.T) {
		days, err := parseDays("5,1,1,0")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 5}, days)
	})

	t.Run("mixed case names", func(t *testing.T) {
		days, err := parseDays("Sat, SUN")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 6}, days)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		for _, raw := range []string{"", "funday", "7", "-1", ","} {
			_, err := parseDays(raw)
			assert.Error(t, err, "raw=%q", raw)
		}
	})
}

func TestParseSlot(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)

	t.Run("valid slot on the given day", func(t *testing.T) {
		start, end, err := parseSlot("09:00-10:30", day)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local), start)
		assert.Equal(t, 90*time.Minute, end.Sub(start))
	})

	t.Run("rejects inverted and malformed slots", func(t *testing.T) {
		for _, raw := range []string{"10:00-09:00", "10:00-10:00", "10:00", "a-b", ""} {
			_, _, err := parseSlot(raw, day)
			assert.Error(t, err, "raw=%q", raw)
		}
	})
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle("short", 10))
	assert.Equal(t, "multi line", shortTitle("multi\nline", 20))

	long := shortTitle("a very long task title indeed", 10)
	assert.Equal(t, 10, len([]rune(long)))
	assert.Equal(t, "…", string([]rune(long)[9]))
}

func TestDialogInputHelpers(t *testing.T) {
	assert.True(t, isSkipInput("-"))
	assert.True(t, isSkipInput("skip"))
	assert.True(t, isSkipInput(btnSkip))
	assert.False(t, isSkipInput("buy milk"))

	assert.True(t, isCancelInput("cancel"))
	assert.True(t, isCancelInput(btnCancel))
	assert.False(t, isCancelInput("keep going"))
}
