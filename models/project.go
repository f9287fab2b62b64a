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

// Project carries both the directory identity (name + aliases the extraction
// guesses are matched against) and the agreed financial parameters the
// profitability calculator runs on.
type Project struct {
	ID              int             `gorm:"primary_key" json:"id"`
	UserId          string          `gorm:"size:64;index;not null" json:"user_id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	ClientName      string          `gorm:"size:255" json:"client_name"`
	Currency        string          `gorm:"size:8;not null;default:USD" json:"currency"`
	ExpectedFee     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expected_fee"`
	ExpectedHours   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"expected_hours"`
	PlatformFeeRate decimal.Decimal `gorm:"type:decimal(6,4);default:0" json:"platform_fee_rate"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(6,4);default:0" json:"tax_rate"`
	ProgressPercent int             `gorm:"not null;default:0" json:"progress_percent"`
	IsArchived      bool            `gorm:"not null;default:false" json:"is_archived"`
	Aliases         []*ProjectAlias `json:"aliases"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProjectAlias struct {
	ID        int    `gorm:"primary_key" json:"id"`
	UserId    string `gorm:"size:64;index;not null" json:"user_id"`
	ProjectId int    `gorm:"index;not null" json:"project_id"`
	Alias     string `gorm:"size:255;not null" json:"alias"`
}

type NewProject struct {
	Name            string          `json:"name" binding:"required" validate:"required"`
	ClientName      string          `json:"client_name"`
	Currency        string          `json:"currency"`
	ExpectedFee     decimal.Decimal `json:"expected_fee"`
	ExpectedHours   decimal.Decimal `json:"expected_hours"`
	PlatformFeeRate decimal.Decimal `json:"platform_fee_rate"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	ProgressPercent int             `json:"progress_percent"`
	Aliases         []string        `json:"aliases"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProject) validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.ExpectedFee.IsNegative() {
		return utils.NewValidationError("expectedFee", "must not be negative")
	}
	if input.ExpectedHours.IsNegative() {
		return utils.NewValidationError("expectedHours", "must not be negative")
	}
	// Rates are fractions at this boundary, never percentages.
	one := decimal.NewFromInt(1)
	if input.PlatformFeeRate.IsNegative() || input.PlatformFeeRate.GreaterThan(one) {
		return utils.NewValidationError("platformFeeRate", "must be a fraction between 0 and 1")
	}
	if input.TaxRate.IsNegative() || input.TaxRate.GreaterThan(one) {
		return utils.NewValidationError("taxRate", "must be a fraction between 0 and 1")
	}
	if input.ProgressPercent < 0 || input.ProgressPercent > 100 {
		return utils.NewValidationError("progressPercent", "must be between 0 and 100")
	}
	if err := utils.ValidateUnique[Project](ctx, userId, "name", strings.TrimSpace(input.Name), id); err != nil {
		return utils.NewValidationError("name", "duplicate project name")
	}
	return nil
}

func (input *NewProject) mapAliases(userId string) []*ProjectAlias {
	seen := map[string]bool{}
	aliases := make([]*ProjectAlias, 0, len(input.Aliases))
	for _, a := range input.Aliases {
		a = strings.TrimSpace(a)
		if a == "" || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		aliases = append(aliases, &ProjectAlias{UserId: userId, Alias: a})
	}
	return aliases
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.validate(ctx, userId, 0); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	project := Project{
		UserId:          userId,
		Name:            strings.TrimSpace(input.Name),
		ClientName:      strings.TrimSpace(input.ClientName),
		Currency:        currency,
		ExpectedFee:     input.ExpectedFee,
		ExpectedHours:   input.ExpectedHours,
		PlatformFeeRate: input.PlatformFeeRate,
		TaxRate:         input.TaxRate,
		ProgressPercent: input.ProgressPercent,
		Aliases:         input.mapAliases(userId),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	invalidateProjectDirectory(userId)
	return &project, nil
}

func UpdateProject(ctx context.Context, id int, input *NewProject) (*Project, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if _, err := utils.FetchModel[Project](ctx, userId, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, userId, id); err != nil {
		return nil, err
	}

	update := Project{
		ID:     id,
		UserId: userId,
	}

	db := config.GetDB()
	tx := db.Begin()

	err := tx.WithContext(ctx).Model(&update).Updates(map[string]interface{}{
		"Name":            strings.TrimSpace(input.Name),
		"ClientName":      strings.TrimSpace(input.ClientName),
		"ExpectedFee":     input.ExpectedFee,
		"ExpectedHours":   input.ExpectedHours,
		"PlatformFeeRate": input.PlatformFeeRate,
		"TaxRate":         input.TaxRate,
		"ProgressPercent": input.ProgressPercent,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Aliases are replaced wholesale; they are cheap lookup rows, not facts.
	if err := tx.WithContext(ctx).Where("project_id = ? AND user_id = ?", id, userId).Delete(&ProjectAlias{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	aliases := input.mapAliases(userId)
	for _, alias := range aliases {
		alias.ProjectId = id
	}
	if len(aliases) > 0 {
		if err := tx.WithContext(ctx).Create(&aliases).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invalidateProjectDirectory(userId)
	utils.RemoveRedis[Project](id)
	return GetProject(ctx, id)
}

func ArchiveProject(ctx context.Context, id int, archived bool) (*Project, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	project, err := utils.FetchModel[Project](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(project).UpdateColumn("IsArchived", archived).Error; err != nil {
		return nil, err
	}
	invalidateProjectDirectory(userId)
	utils.RemoveRedis[Project](id)
	project.IsArchived = archived
	return project, nil
}

// first find in redis, then in db, cache result
// (may return RecordNotFound error)
func GetProject(ctx context.Context, id int) (*Project, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.RetrieveRedis[Project](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[Project](ctx, userId, id, "Aliases")
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Project](result, id); err != nil {
			return nil, err
		}
	} else if result.UserId != userId {
		// Ownership failures look identical to missing rows, cached or not.
		return nil, utils.ErrorRecordNotFound
	}

	return result, nil
}

func ListProjects(ctx context.Context) ([]*Project, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	return utils.FetchAllModels[Project](ctx, userId, "Aliases")
}

/* Project directory */

// ProjectRef is one directory row the matcher runs against: canonical name
// plus alias strings, active projects only.
type ProjectRef struct {
	Id      int      `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func projectDirectoryKey(userId string) string {
	return "ProjectDirectory:" + userId
}

func invalidateProjectDirectory(userId string) {
	_ = config.RemoveRedisKey(projectDirectoryKey(userId))
}

// GetProjectDirectory returns active projects as matcher rows, redis or db.
func GetProjectDirectory(ctx context.Context) ([]*ProjectRef, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	var refs []*ProjectRef
	exists, err := config.GetRedisObject(projectDirectoryKey(userId), &refs)
	if err != nil {
		return nil, err
	}
	if exists {
		return refs, nil
	}

	db := config.GetDB()
	var projects []*Project
	if err := db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", userId, false).
		Preload("Aliases").
		Order("name").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	refs = make([]*ProjectRef, 0, len(projects))
	for _, p := range projects {
		ref := &ProjectRef{Id: p.ID, Name: p.Name}
		for _, a := range p.Aliases {
			ref.Aliases = append(ref.Aliases, a.Alias)
		}
		refs = append(refs, ref)
	}

	if err := config.SetRedisObject(projectDirectoryKey(userId), &refs, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return refs, nil
}

// MatchProjectReference resolves a free-text project reference against the
// directory: exact case-insensitive canonical-name match wins, then aliases.
// No fuzzy matching on purpose; anything else is a human decision.
func MatchProjectReference(raw string, directory []*ProjectRef) (int, MatchSource) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return 0, MatchSourceNone
	}
	for _, ref := range directory {
		if strings.ToLower(ref.Name) == needle {
			return ref.Id, MatchSourceName
		}
	}
	for _, ref := range directory {
		for _, alias := range ref.Aliases {
			if strings.ToLower(alias) == needle {
				return ref.Id, MatchSourceAlias
			}
		}
	}
	return 0, MatchSourceNone
}
