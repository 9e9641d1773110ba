package models

import (
	"time"
)

// DeviceBinding locks one physical device to one account. The unique index
// on device_id is what the verifier's conflict checks rely on.
type DeviceBinding struct {
	ID         uint   `gorm:"primaryKey"`
	DeviceID   string `gorm:"size:128;uniqueIndex;not null"`
	TgID       int64  `gorm:"index;not null"`
	VerifiedAt time.Time
}
