package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referral-bot/internal/database"
	"referral-bot/internal/models"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and serializes
	// concurrent transactions the way postgres row locks would.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return New(db), db
}

func seedAccount(t *testing.T, db *gorm.DB, acc models.Account) {
	t.Helper()
	require.NoError(t, db.Create(&acc).Error)
}

func TestUpsertAccountCreatesWithZeroState(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertAccount(ctx, 100, "alice", "Alice"))

	acc, err := s.GetAccount(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "alice", acc.Username)
	require.Equal(t, "Alice", acc.FirstName)
	require.EqualValues(t, 0, acc.Points)
	require.EqualValues(t, 0, acc.Referrals)
	require.False(t, acc.Verified)
	require.False(t, acc.ReferralAwarded)
	require.Nil(t, acc.ReferredBy)
	require.False(t, acc.LastSeen.IsZero())
}

func TestUpsertAccountRefreshesOnlyDisplayFields(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertAccount(ctx, 100, "alice", "Alice"))
	require.NoError(t, db.Model(&models.Account{}).Where("tg_id = ?", 100).
		Updates(map[string]interface{}{"points": 7, "verified": true}).Error)

	require.NoError(t, s.UpsertAccount(ctx, 100, "alice2", "Alicia"))

	acc, err := s.GetAccount(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "alice2", acc.Username)
	require.Equal(t, "Alicia", acc.FirstName)
	require.EqualValues(t, 7, acc.Points)
	require.True(t, acc.Verified)
}

func TestGetAccountNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetAccount(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}
