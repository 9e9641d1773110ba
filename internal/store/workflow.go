package store

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"referral-bot/internal/models"
)

// WorkflowKind tags what the account's next free-text message means.
type WorkflowKind string

const (
	WorkflowIdle          WorkflowKind = ""
	WorkflowAwaitChannels WorkflowKind = "admin_set_channels"
	WorkflowAwaitPrice    WorkflowKind = "admin_set_rule_points"
	WorkflowAwaitCodes    WorkflowKind = "admin_add_coupons"
	WorkflowAwaitRemoval  WorkflowKind = "admin_remove_coupons"
)

// WorkflowState is the tagged variant stored in the account's state columns.
// Only the tier-scoped kinds carry a payload.
type WorkflowState struct {
	Kind WorkflowKind `json:"-"`
	Tier string       `json:"tier,omitempty"`
}

// SetWorkflowState overwrites the account's workflow state. An idle state
// clears both columns.
func (s *Store) SetWorkflowState(ctx context.Context, tgID int64, ws WorkflowState) error {
	updates := map[string]interface{}{
		"state":      string(ws.Kind),
		"state_data": nil,
	}
	if ws.Kind != WorkflowIdle && ws.Tier != "" {
		payload, err := json.Marshal(ws)
		if err != nil {
			return err
		}
		updates["state_data"] = datatypes.JSON(payload)
	}
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tg_id = ?", tgID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ClearWorkflowState(ctx context.Context, tgID int64) error {
	return s.SetWorkflowState(ctx, tgID, WorkflowState{})
}

// ParseWorkflowState reads the tagged state back out of an account row.
// Malformed payloads degrade to an empty tier rather than failing.
func ParseWorkflowState(acc *models.Account) WorkflowState {
	ws := WorkflowState{Kind: WorkflowKind(acc.State)}
	if len(acc.StateData) > 0 {
		_ = json.Unmarshal(acc.StateData, &ws)
	}
	return ws
}
