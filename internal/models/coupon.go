package models

import (
	"time"
)

// Coupon is a single-use code in one of the fixed tiers. Codes are unique
// within a tier; redemption flips is_used exactly once.
type Coupon struct {
	ID        uint   `gorm:"primaryKey"`
	Tier      string `gorm:"size:16;not null;uniqueIndex:idx_coupons_tier_code"`
	Code      string `gorm:"size:255;not null;uniqueIndex:idx_coupons_tier_code"`
	IsUsed    bool   `gorm:"not null;default:false;index"`
	UsedBy    *int64
	UsedAt    *time.Time
	CreatedAt time.Time
}
