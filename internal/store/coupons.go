package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-bot/internal/models"
)

// StockCounts returns the number of unused coupons per tier.
func (s *Store) StockCounts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(Tiers))
	for _, t := range Tiers {
		var c int64
		err := s.db.WithContext(ctx).Model(&models.Coupon{}).
			Where("tier = ? AND is_used = ?", t, false).
			Count(&c).Error
		if err != nil {
			return nil, err
		}
		out[t] = c
	}
	return out, nil
}

// AddCoupons bulk-inserts codes into a tier. Blank codes are skipped and
// codes already present in the tier are ignored; the returned count is what
// actually landed. An invalid tier inserts nothing.
func (s *Store) AddCoupons(ctx context.Context, tier string, codes []string) (int, error) {
	if !ValidTier(tier) {
		return 0, nil
	}
	rows := make([]models.Coupon, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		rows = append(rows, models.Coupon{Tier: tier, Code: code})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// RemoveUnusedCoupons deletes up to count oldest unused coupons from a tier
// and returns how many were actually removed. Count is floored at 1.
func (s *Store) RemoveUnusedCoupons(ctx context.Context, tier string, count int) (int64, error) {
	if !ValidTier(tier) {
		return 0, nil
	}
	if count < 1 {
		count = 1
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("tier = ? AND is_used = ?", tier, false).
		Order("id asc").
		Limit(count).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	// Re-check is_used so a coupon redeemed in between survives.
	res := s.db.WithContext(ctx).
		Where("id IN ? AND is_used = ?", ids, false).
		Delete(&models.Coupon{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RedeemResult is the revealed code and the exact amount deducted.
type RedeemResult struct {
	Code  string
	Spent int64
}

// RedeemCoupon atomically exchanges points for the oldest unused coupon of
// the tier. The select locks the row (FOR UPDATE on postgres) so concurrent
// redemptions never pick the same coupon, and the deduction re-checks the
// balance inside the transaction. Any failure rolls the whole exchange back.
func (s *Store) RedeemCoupon(ctx context.Context, tgID int64, tier string) (*RedeemResult, error) {
	if !ValidTier(tier) {
		return nil, ErrInvalidTier
	}
	acc, err := s.GetAccount(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if !acc.Verified {
		return nil, ErrNotVerified
	}

	rules, err := s.RedeemRules(ctx)
	if err != nil {
		return nil, err
	}
	need := rules[tier].Points
	if acc.Points < need {
		return nil, &InsufficientPointsError{Required: need, Held: acc.Points}
	}

	var out RedeemResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coupon models.Coupon
		err := forUpdate(tx).
			Where("tier = ? AND is_used = ?", tier, false).
			Order("id asc").
			First(&coupon).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOutOfStock
		}
		if err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Coupon{}).
			Where("id = ? AND is_used = ?", coupon.ID, false).
			Updates(map[string]interface{}{
				"is_used": true,
				"used_by": tgID,
				"used_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Row was taken between select and update; treat as conflict.
			return ErrOutOfStock
		}

		res = tx.Model(&models.Account{}).
			Where("tg_id = ? AND points >= ?", tgID, need).
			Update("points", gorm.Expr("points - ?", need))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cur models.Account
			if err := tx.Where("tg_id = ?", tgID).First(&cur).Error; err != nil {
				return err
			}
			return &InsufficientPointsError{Required: need, Held: cur.Points}
		}

		if err := tx.Create(&models.Redemption{
			TgID:        tgID,
			Tier:        tier,
			Code:        coupon.Code,
			PointsSpent: need,
		}).Error; err != nil {
			return err
		}

		out = RedeemResult{Code: coupon.Code, Spent: need}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RedemptionEntry is a redemption joined with the redeemer's display fields.
type RedemptionEntry struct {
	TgID        int64
	Tier        string
	Code        string
	PointsSpent int64
	CreatedAt   time.Time
	Username    string
	FirstName   string
}

// DisplayName mirrors Account.DisplayName for the joined row.
func (e *RedemptionEntry) DisplayName() string {
	if e.FirstName != "" {
		return e.FirstName
	}
	if e.Username != "" {
		return "@" + e.Username
	}
	return strconv.FormatInt(e.TgID, 10)
}

// RecentRedemptions returns the latest n redemptions, newest first.
func (s *Store) RecentRedemptions(ctx context.Context, n int) ([]RedemptionEntry, error) {
	var out []RedemptionEntry
	err := s.db.WithContext(ctx).
		Table("redemptions").
		Select("redemptions.tg_id, redemptions.tier, redemptions.code, redemptions.points_spent, redemptions.created_at, accounts.username, accounts.first_name").
		Joins("left join accounts on accounts.tg_id = redemptions.tg_id").
		Order("redemptions.id desc").
		Limit(n).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
