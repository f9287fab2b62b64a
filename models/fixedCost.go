package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/utils"
	"github.com/shopspring/decimal"
)

// FixedCost is one recurring monthly cost row (software, coworking, gear).
// The profitability calculator only ever sees the per-user SUM.
type FixedCost struct {
	ID        int             `gorm:"primary_key" json:"id"`
	UserId    string          `gorm:"size:64;index;not null" json:"user_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFixedCost struct {
	Name   string          `json:"name" binding:"required" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (input *NewFixedCost) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount", "must not be negative")
	}
	return nil
}

func CreateFixedCost(ctx context.Context, input *NewFixedCost) (*FixedCost, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	cost := FixedCost{
		UserId: userId,
		Name:   strings.TrimSpace(input.Name),
		Amount: input.Amount,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&cost).Error; err != nil {
		return nil, err
	}
	return &cost, nil
}

func UpdateFixedCost(ctx context.Context, id int, input *NewFixedCost) (*FixedCost, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	cost, err := utils.FetchModel[FixedCost](ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(cost).Updates(map[string]interface{}{
		"Name":   strings.TrimSpace(input.Name),
		"Amount": input.Amount,
	}).Error
	if err != nil {
		return nil, err
	}
	return cost, nil
}

func DeleteFixedCost(ctx context.Context, id int) (*FixedCost, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	cost, err := utils.FetchModel[FixedCost](ctx, userId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(cost).Error; err != nil {
		return nil, err
	}
	return cost, nil
}

func ListFixedCosts(ctx context.Context) ([]*FixedCost, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	return utils.FetchAllModels[FixedCost](ctx, userId)
}

// SumFixedCosts returns the fixed-cost total fed to the calculator.
func SumFixedCosts(ctx context.Context, userId string) (decimal.Decimal, error) {
	db := config.GetDB()
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Model(&FixedCost{}).
		Where("user_id = ?", userId).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
