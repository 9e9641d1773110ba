package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"referral-bot/internal/models"
)

// AwardReferralIfNeeded credits the referrer of tgID with exactly one point
// and one referral, at most once per referred account, and only after that
// account is verified. Returns the referrer's tg id so the caller can notify
// them, or ErrNoAward when nothing is due.
//
// The guarded flip of referral_awarded is the whole concurrency story: the
// update only succeeds while the flag is still false, so a duplicate webhook
// delivery racing this call affects zero rows and rolls back.
func (s *Store) AwardReferralIfNeeded(ctx context.Context, tgID int64) (int64, error) {
	acc, err := s.GetAccount(ctx, tgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNoAward
		}
		return 0, err
	}
	if !acc.Verified || acc.ReferralAwarded || acc.ReferredBy == nil {
		return 0, ErrNoAward
	}
	referrer := *acc.ReferredBy

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("tg_id = ? AND referral_awarded = ?", tgID, false).
			Update("referral_awarded", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race, someone already awarded it.
			return ErrNoAward
		}
		return tx.Model(&models.Account{}).
			Where("tg_id = ?", referrer).
			Updates(map[string]interface{}{
				"points":    gorm.Expr("points + 1"),
				"referrals": gorm.Expr("referrals + 1"),
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return referrer, nil
}
