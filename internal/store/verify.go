package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-bot/internal/models"
)

// IssueVerifyToken stores a fresh random token as the account's current
// verification token. Any previously issued token stops working immediately.
func (s *Store) IssueVerifyToken(ctx context.Context, tgID int64) (string, error) {
	token := uuid.NewString()
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tg_id = ?", tgID).
		Update("verify_token", token)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return token, nil
}

// VerifyDevice enforces the 1-device-to-1-account rule and flips the
// account's verified flag. On DeviceConflict and AccountConflict the target
// account id is still returned for caller context; nothing is written.
// Re-verifying the same account on its own device succeeds and just bumps
// the binding timestamp.
//
// Both exclusivity checks and the bind run in one transaction on locked
// rows, so concurrent verifications of the same device serialize and at
// most one account ever gets the binding. The insert never reassigns an
// existing row; if it affects zero rows, a rows-affected check on the
// timestamp bump tells a same-account re-verify apart from a lost race.
func (s *Store) VerifyDevice(ctx context.Context, token, deviceID string) (int64, error) {
	token = strings.TrimSpace(token)
	deviceID = strings.TrimSpace(deviceID)
	if token == "" || deviceID == "" {
		return 0, ErrInvalidToken
	}

	var acc models.Account
	err := s.db.WithContext(ctx).Where("verify_token = ?", token).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Device already locked to a different account?
		var bound models.DeviceBinding
		err := forUpdate(tx).Where("device_id = ?", deviceID).First(&bound).Error
		if err == nil && bound.TgID != acc.TgID {
			return ErrDeviceConflict
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Account already locked to a different device?
		var existing models.DeviceBinding
		err = forUpdate(tx).Where("tg_id = ?", acc.TgID).First(&existing).Error
		if err == nil && existing.DeviceID != deviceID {
			return ErrAccountConflict
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		binding := models.DeviceBinding{
			DeviceID:   deviceID,
			TgID:       acc.TgID,
			VerifiedAt: now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&binding)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			res = tx.Model(&models.DeviceBinding{}).
				Where("device_id = ? AND tg_id = ?", deviceID, acc.TgID).
				Update("verified_at", now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// The row landed for someone else between the read
				// and the insert.
				return ErrDeviceConflict
			}
		}

		return tx.Model(&models.Account{}).
			Where("tg_id = ?", acc.TgID).
			Update("verified", true).Error
	})
	if errors.Is(err, ErrDeviceConflict) || errors.Is(err, ErrAccountConflict) {
		return acc.TgID, err
	}
	if err != nil {
		return 0, err
	}
	return acc.TgID, nil
}
