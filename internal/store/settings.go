package store

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-bot/internal/models"
)

const (
	settingChannels = "force_join_channels"
	settingRules    = "redeem_rules"
)

// ChannelSlots is the fixed number of force-join channel slots.
const ChannelSlots = 5

// TierRule is the per-tier redemption price.
type TierRule struct {
	Points int64 `json:"points"`
}

// DefaultRedeemRules are the compiled-in prices used when no override is
// stored. A stored override is merged over these per tier.
func DefaultRedeemRules() map[string]TierRule {
	return map[string]TierRule{
		"500":  {Points: 3},
		"1000": {Points: 10},
		"2000": {Points: 25},
		"4000": {Points: 40},
	}
}

func DefaultChannels() []string {
	return []string{"@channel1", "@channel2", "@channel3", "@channel4", "@channel5"}
}

// getSetting unmarshals the stored value for key into out. A missing row or
// a value that does not fit out counts as absent, matching the
// fall-back-to-defaults contract.
func (s *Store) getSetting(ctx context.Context, key string, out interface{}) (bool, error) {
	var row models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		return false, nil
	}
	return true, nil
}

// SetSetting upserts a JSON value under key, last write wins.
func (s *Store) SetSetting(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	row := models.Setting{Key: key, Value: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Channels returns the force-join channel list normalized to exactly
// ChannelSlots entries, padding with empty strings.
func (s *Store) Channels(ctx context.Context) ([]string, error) {
	channels := DefaultChannels()
	var stored []string
	ok, err := s.getSetting(ctx, settingChannels, &stored)
	if err != nil {
		return nil, err
	}
	if ok {
		channels = stored
	}
	if len(channels) > ChannelSlots {
		channels = channels[:ChannelSlots]
	}
	for len(channels) < ChannelSlots {
		channels = append(channels, "")
	}
	return channels, nil
}

func (s *Store) SetChannels(ctx context.Context, channels []string) error {
	if len(channels) > ChannelSlots {
		channels = channels[:ChannelSlots]
	}
	return s.SetSetting(ctx, settingChannels, channels)
}

// RedeemRules returns the current price table, stored overrides merged over
// the compiled-in defaults field by field, so a partial override never drops
// a tier or blanks its price.
func (s *Store) RedeemRules(ctx context.Context) (map[string]TierRule, error) {
	rules := DefaultRedeemRules()
	stored := map[string]struct {
		Points *int64 `json:"points"`
	}{}
	ok, err := s.getSetting(ctx, settingRules, &stored)
	if err != nil {
		return nil, err
	}
	if ok {
		for tier, rule := range stored {
			if ValidTier(tier) && rule.Points != nil && *rule.Points >= 0 {
				rules[tier] = TierRule{Points: *rule.Points}
			}
		}
	}
	return rules, nil
}

func (s *Store) SetRedeemRules(ctx context.Context, rules map[string]TierRule) error {
	return s.SetSetting(ctx, settingRules, rules)
}

// SetTierPoints updates a single tier's price, keeping the other tiers as
// they currently resolve.
func (s *Store) SetTierPoints(ctx context.Context, tier string, points int64) error {
	if !ValidTier(tier) {
		return ErrInvalidTier
	}
	if points < 0 {
		points = 0
	}
	rules, err := s.RedeemRules(ctx)
	if err != nil {
		return err
	}
	rules[tier] = TierRule{Points: points}
	return s.SetRedeemRules(ctx, rules)
}
