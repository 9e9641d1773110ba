package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-bot/internal/models"
)

// UpsertAccount creates the account on first sight and only refreshes the
// display fields and last_seen afterwards. Points, referral attribution and
// verification state are never touched here.
func (s *Store) UpsertAccount(ctx context.Context, tgID int64, username, firstName string) error {
	acc := models.Account{
		TgID:      tgID,
		Username:  username,
		FirstName: firstName,
		LastSeen:  time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_seen"}),
	}).Create(&acc).Error
}

func (s *Store) GetAccount(ctx context.Context, tgID int64) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("tg_id = ?", tgID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// SetReferredBy records referral attribution, first writer wins. Self
// referrals and unknown accounts are silent no-ops, and an attribution that
// is already set is never overwritten.
func (s *Store) SetReferredBy(ctx context.Context, tgID, referrerID int64) error {
	if tgID == referrerID {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tg_id = ? AND referred_by IS NULL", tgID).
		Update("referred_by", referrerID).Error
}

// CreditPoints adds delta to an account's balance. Deductions go through
// RedeemCoupon, which re-checks the balance; this is the admin-side credit.
func (s *Store) CreditPoints(ctx context.Context, tgID, delta int64) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tg_id = ?", tgID).
		Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TopReferrers returns up to n accounts ordered by referral count, points
// breaking ties.
func (s *Store) TopReferrers(ctx context.Context, n int) ([]models.Account, error) {
	var accs []models.Account
	err := s.db.WithContext(ctx).
		Order("referrals desc, points desc").
		Limit(n).
		Find(&accs).Error
	if err != nil {
		return nil, err
	}
	return accs, nil
}
