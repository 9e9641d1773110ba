package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// Account is a bot user keyed by Telegram id. Points, referral attribution
// and verification state are only mutated through the store's transactional
// operations.
type Account struct {
	ID              uint   `gorm:"primaryKey"`
	TgID            int64  `gorm:"uniqueIndex;not null"`
	Username        string `gorm:"size:255"`
	FirstName       string `gorm:"size:255"`
	Points          int64  `gorm:"not null;default:0"`
	Referrals       int64  `gorm:"not null;default:0"`
	ReferredBy      *int64 `gorm:"index"`
	ReferralAwarded bool   `gorm:"not null;default:false"`
	Verified        bool   `gorm:"not null;default:false"`
	VerifyToken     string `gorm:"size:64;index"`
	State           string `gorm:"size:64"`
	StateData       datatypes.JSON
	LastSeen        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName picks the friendliest available label for messages.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	if a.Username != "" {
		return "@" + a.Username
	}
	return strconv.FormatInt(a.TgID, 10)
}
