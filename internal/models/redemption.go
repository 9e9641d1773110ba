package models

import (
	"time"
)

// Redemption is an append-only log row written in the same transaction that
// marks the coupon used and deducts the points.
type Redemption struct {
	ID          uint   `gorm:"primaryKey"`
	TgID        int64  `gorm:"not null;index"`
	Tier        string `gorm:"size:16;not null"`
	Code        string `gorm:"size:255;not null"`
	PointsSpent int64  `gorm:"not null"`
	CreatedAt   time.Time
}
