package models

import (
	"context"
	"errors"
	"time"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScopeRuleState remembers, per (project, rule), whether the rule held at the
// last evaluation. Alerts are only created on a false-to-true transition:
// while a rule stays continuously true, a dismissed alert is terminal and the
// rule stays silent until it first drops back under its threshold.
type ScopeRuleState struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    string    `gorm:"size:64;index;not null" json:"user_id"`
	ProjectId int       `gorm:"not null;uniqueIndex:uniq_rule_state" json:"project_id"`
	AlertType AlertType `gorm:"size:16;not null;uniqueIndex:uniq_rule_state" json:"alert_type"`
	WasTrue   bool      `gorm:"not null;default:false" json:"was_true"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetRuleState returns the stored state for one (project, rule), defaulting
// to false when the rule was never evaluated.
func GetRuleState(ctx context.Context, projectId int, alertType AlertType) (bool, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return false, errors.New("user id is required")
	}

	db := config.GetDB()
	var state ScopeRuleState
	err := db.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND alert_type = ?", userId, projectId, alertType).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return state.WasTrue, nil
}

// SetRuleState upserts the evaluation outcome for one (project, rule).
func SetRuleState(ctx context.Context, projectId int, alertType AlertType, isTrue bool) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	state := ScopeRuleState{
		UserId:    userId,
		ProjectId: projectId,
		AlertType: alertType,
		WasTrue:   isTrue,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "alert_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"was_true": isTrue, "updated_at": time.Now().UTC()}),
	}).Create(&state).Error
}
