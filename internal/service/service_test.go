package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// newTestDB opens a throwaway sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), 42, "Test", "User", "testuser")
	require.NoError(t, err)
	return user
}

// at builds a local instant on a fixed reference day.
func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

var refDay = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local)

func ptr[T any](v T) *T { return &v }
