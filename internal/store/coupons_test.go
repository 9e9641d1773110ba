package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"referral-bot/internal/models"
)

func TestAddCouponsSkipsBlanksAndInvalidTier(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.AddCoupons(ctx, "750", []string{"CODE-1"})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = s.AddCoupons(ctx, "500", []string{"CODE-1", "  ", "", "CODE-2"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	stock, err := s.StockCounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stock["500"])
}

func TestAddCouponsIgnoresDuplicateCodes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.AddCoupons(ctx, "500", []string{"CODE-1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.AddCoupons(ctx, "500", []string{"CODE-1"})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// Same code in another tier is a different coupon.
	n, err = s.AddCoupons(ctx, "1000", []string{"CODE-1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveUnusedCouponsOldestFirst(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddCoupons(ctx, "500", []string{"A"})
	require.NoError(t, err)
	_, err = s.AddCoupons(ctx, "500", []string{"B"})
	require.NoError(t, err)
	_, err = s.AddCoupons(ctx, "500", []string{"C"})
	require.NoError(t, err)

	removed, err := s.RemoveUnusedCoupons(ctx, "500", 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var remaining []models.Coupon
	require.NoError(t, db.Where("tier = ?", "500").Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "C", remaining[0].Code)

	// Bounded by available stock, floored at 1.
	removed, err = s.RemoveUnusedCoupons(ctx, "500", 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	removed, err = s.RemoveUnusedCoupons(ctx, "500", 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, removed)
}

func TestRemoveUnusedCouponsKeepsUsedOnes(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddCoupons(ctx, "500", []string{"A", "B"})
	require.NoError(t, err)
	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 3})

	_, err = s.RedeemCoupon(ctx, 1, "500")
	require.NoError(t, err)

	removed, err := s.RemoveUnusedCoupons(ctx, "500", 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, db.Model(&models.Coupon{}).Where("is_used = ?", true).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRedeemCouponValidation(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.RedeemCoupon(ctx, 1, "750")
	require.ErrorIs(t, err, ErrInvalidTier)

	_, err = s.RedeemCoupon(ctx, 1, "500")
	require.ErrorIs(t, err, ErrNotFound)

	seedAccount(t, db, models.Account{TgID: 1, Points: 100})
	_, err = s.RedeemCoupon(ctx, 1, "500")
	require.ErrorIs(t, err, ErrNotVerified)
}

func TestRedeemCouponInsufficientPoints(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 2})

	_, err := s.RedeemCoupon(ctx, 1, "500")
	var ipErr *InsufficientPointsError
	require.ErrorAs(t, err, &ipErr)
	require.EqualValues(t, 3, ipErr.Required)
	require.EqualValues(t, 2, ipErr.Held)
}

func TestRedeemCouponOutOfStock(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 50})

	_, err := s.RedeemCoupon(ctx, 1, "500")
	require.ErrorIs(t, err, ErrOutOfStock)

	// The failed attempt must not have touched the balance.
	acc, err := s.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 50, acc.Points)
}

func TestRedeemCouponExactDeduction(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 30})
	_, err := s.AddCoupons(ctx, "1000", []string{"CODE-X"})
	require.NoError(t, err)

	result, err := s.RedeemCoupon(ctx, 1, "1000")
	require.NoError(t, err)
	require.Equal(t, "CODE-X", result.Code)
	require.EqualValues(t, 10, result.Spent)

	acc, err := s.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 20, acc.Points)

	var coupon models.Coupon
	require.NoError(t, db.Where("code = ?", "CODE-X").First(&coupon).Error)
	require.True(t, coupon.IsUsed)
	require.NotNil(t, coupon.UsedBy)
	require.EqualValues(t, 1, *coupon.UsedBy)
	require.NotNil(t, coupon.UsedAt)

	var record models.Redemption
	require.NoError(t, db.Where("tg_id = ?", 1).First(&record).Error)
	require.Equal(t, "1000", record.Tier)
	require.Equal(t, "CODE-X", record.Code)
	require.EqualValues(t, 10, record.PointsSpent)
}

func TestRedeemCouponUsesCurrentPrice(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetTierPoints(ctx, "500", 1))
	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 1})
	_, err := s.AddCoupons(ctx, "500", []string{"CHEAP"})
	require.NoError(t, err)

	result, err := s.RedeemCoupon(ctx, 1, "500")
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Spent)

	acc, err := s.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 0, acc.Points)
}

func TestRedeemCouponFIFO(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 1, Verified: true, Points: 10})
	_, err := s.AddCoupons(ctx, "500", []string{"FIRST", "SECOND"})
	require.NoError(t, err)

	result, err := s.RedeemCoupon(ctx, 1, "500")
	require.NoError(t, err)
	require.Equal(t, "FIRST", result.Code)

	result, err = s.RedeemCoupon(ctx, 1, "500")
	require.NoError(t, err)
	require.Equal(t, "SECOND", result.Code)
}

func TestRedeemCouponContention(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	const stock = 2
	const contenders = 5

	_, err := s.AddCoupons(ctx, "500", []string{"C1", "C2"})
	require.NoError(t, err)
	for i := 1; i <= contenders; i++ {
		seedAccount(t, db, models.Account{TgID: int64(i), Verified: true, Points: 10})
	}

	var wg sync.WaitGroup
	codes := make(chan string, contenders)
	misses := make(chan error, contenders)
	for i := 1; i <= contenders; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			result, err := s.RedeemCoupon(ctx, uid, "500")
			if err != nil {
				misses <- err
				return
			}
			codes <- result.Code
		}(int64(i))
	}
	wg.Wait()
	close(codes)
	close(misses)

	won := map[string]bool{}
	for code := range codes {
		require.False(t, won[code], "coupon %s redeemed twice", code)
		won[code] = true
	}
	require.Len(t, won, stock)

	var lost int
	for err := range misses {
		require.ErrorIs(t, err, ErrOutOfStock)
		lost++
	}
	require.Equal(t, contenders-stock, lost)

	var used int64
	require.NoError(t, db.Model(&models.Coupon{}).Where("is_used = ?", true).Count(&used).Error)
	require.EqualValues(t, stock, used)
}
