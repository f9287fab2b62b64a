package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/utils"
	"gorm.io/gorm"
)

// ScopeAlert is soft-closed, never deleted. The central consistency
// guarantee of the alerting subsystem is AT MOST ONE active alert per
// (project, type): ActiveKey is "1" while the alert is active and NULL once
// dismissed, so the composite unique index only bites on active rows
// (portable stand-in for a partial unique index).
type ScopeAlert struct {
	ID          int           `gorm:"primary_key" json:"id"`
	UserId      string        `gorm:"size:64;index;not null" json:"user_id"`
	ProjectId   int           `gorm:"not null;uniqueIndex:uniq_active_alert" json:"project_id"`
	AlertType   AlertType     `gorm:"size:16;not null;uniqueIndex:uniq_active_alert" json:"alert_type"`
	ActiveKey   *string       `gorm:"size:4;uniqueIndex:uniq_active_alert" json:"-"`
	Metadata    AlertMetadata `gorm:"type:text" json:"metadata"`
	TriggeredAt time.Time     `gorm:"not null" json:"triggered_at"`
	DismissedAt *time.Time    `json:"dismissed_at"`
}

func (m AlertMetadata) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *AlertMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = AlertMetadata{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into AlertMetadata", value)
}

// AlertOutcome is the tagged result of CreateAlertIfAbsent, so callers never
// inspect driver-specific conflict errors.
type AlertOutcome string

const (
	AlertCreated       AlertOutcome = "Created"
	AlertAlreadyActive AlertOutcome = "AlreadyActive"
)

var activeKeyValue = "1"

// CreateAlertIfAbsent inserts an active alert unless one of the same
// (project, type) already exists. Two simultaneous evaluations may both pass
// the pre-check; the unique index is the ground truth, and a duplicate-key
// failure is mapped to the benign AlreadyActive outcome, so the operation is
// safe to retry and to race.
func CreateAlertIfAbsent(ctx context.Context, projectId int, alertType AlertType, metadata AlertMetadata) (AlertOutcome, *ScopeAlert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return "", nil, errors.New("user id is required")
	}

	db := config.GetDB()

	existing, err := getActiveAlert(ctx, db, userId, projectId, alertType)
	if err != nil {
		return "", nil, err
	}
	if existing != nil {
		// An active alert is not re-triggered or updated; dismissal is the
		// only way to clear it, even if the underlying numbers change.
		return AlertAlreadyActive, existing, nil
	}

	alert := ScopeAlert{
		UserId:      userId,
		ProjectId:   projectId,
		AlertType:   alertType,
		ActiveKey:   &activeKeyValue,
		Metadata:    metadata,
		TriggeredAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, fetchErr := getActiveAlert(ctx, db, userId, projectId, alertType)
			if fetchErr != nil {
				return "", nil, fetchErr
			}
			if existing == nil {
				return "", nil, utils.ErrorAlreadyActive
			}
			return AlertAlreadyActive, existing, nil
		}
		return "", nil, err
	}
	return AlertCreated, &alert, nil
}

// GetActiveAlert returns the active alert for one (project, type), or nil.
func GetActiveAlert(ctx context.Context, projectId int, alertType AlertType) (*ScopeAlert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	return getActiveAlert(ctx, config.GetDB(), userId, projectId, alertType)
}

func getActiveAlert(ctx context.Context, db *gorm.DB, userId string, projectId int, alertType AlertType) (*ScopeAlert, error) {
	var alert ScopeAlert
	err := db.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND alert_type = ? AND dismissed_at IS NULL", userId, projectId, alertType).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// DismissAlert soft-closes an alert. NotFound covers a missing id, an
// already-dismissed alert, and an alert owned by another user; dismissal is
// terminal for that occurrence regardless of the underlying ratio.
func DismissAlert(ctx context.Context, alertId int) (*ScopeAlert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	alert, err := utils.FetchModel[ScopeAlert](ctx, userId, alertId)
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if alert.DismissedAt != nil {
		return nil, utils.ErrorRecordNotFound
	}

	now := time.Now().UTC()
	db := config.GetDB()
	err = db.WithContext(ctx).Model(alert).Updates(map[string]interface{}{
		"DismissedAt": &now,
		"ActiveKey":   nil,
	}).Error
	if err != nil {
		return nil, err
	}
	alert.DismissedAt = &now
	alert.ActiveKey = nil
	return alert, nil
}

// GetPendingAlert returns the single oldest active alert for a project, or
// nil when there is none.
func GetPendingAlert(ctx context.Context, projectId int) (*ScopeAlert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var alert ScopeAlert
	err := db.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND dismissed_at IS NULL", userId, projectId).
		Order("triggered_at ASC, id ASC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func ListActiveAlerts(ctx context.Context, projectId *int) ([]*ScopeAlert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("user_id = ? AND dismissed_at IS NULL", userId)
	if projectId != nil && *projectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", *projectId)
	}
	var alerts []*ScopeAlert
	if err := dbCtx.Order("triggered_at ASC, id ASC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
