package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/utils"
)

// TimeRecord is a committed, immutable fact. It is only ever created by the
// batch commit below from a fully-resolved candidate, and only changed
// through UpdateTimeRecord, which re-validates the same invariants.
type TimeRecord struct {
	ID              int           `gorm:"primary_key" json:"id"`
	UserId          string        `gorm:"size:64;index;not null" json:"user_id"`
	ProjectId       int           `gorm:"index;not null" json:"project_id"`
	RecordDate      time.Time     `gorm:"type:date;not null" json:"record_date"`
	Minutes         int           `gorm:"not null" json:"minutes"`
	Category        EntryCategory `gorm:"size:32;not null" json:"category"`
	Intent          EntryIntent   `gorm:"size:16;not null" json:"intent"`
	TaskDescription string        `gorm:"type:text" json:"task_description"`
	SourceText      string        `gorm:"type:text" json:"source_text"`
	// Issues is the audit trail of warnings the entry carried at commit time.
	Issues    IssueList `gorm:"type:text" json:"issues"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type TimeRecordInput struct {
	ProjectId       int           `json:"projectId" binding:"required"`
	Date            string        `json:"date" binding:"required"`
	Minutes         int           `json:"minutes" binding:"required"`
	Category        EntryCategory `json:"category" binding:"required"`
	Intent          EntryIntent   `json:"intent"`
	TaskDescription string        `json:"taskDescription"`
	SourceText      string        `json:"sourceText"`
	Issues          IssueList     `json:"issues"`
}

// CommitResult reports one atomic batch commit. Done and planned entries are
// counted separately so callers can message them differently.
type CommitResult struct {
	Inserted     int   `json:"inserted"`
	DoneCount    int   `json:"doneCount"`
	PlannedCount int   `json:"plannedCount"`
	ProjectIds   []int `json:"projectIds"`
}

// validate one input; index identifies the entry inside the batch so a
// failure never discards the reviewer's remaining session entries.
func (input *TimeRecordInput) validate(index int) (time.Time, error) {
	date, err := utils.ParseCalendarDate(input.Date)
	if err != nil {
		return time.Time{}, utils.NewEntryValidationError(index, "date", "must be an ISO calendar date")
	}
	if input.Minutes < 1 || input.Minutes > 1440 {
		return time.Time{}, utils.NewEntryValidationError(index, "minutes", "must be between 1 and 1440")
	}
	if !input.Category.IsValid() {
		return time.Time{}, utils.NewEntryValidationError(index, "category", "unknown category")
	}
	if input.Intent == "" {
		input.Intent = EntryIntentDone
	}
	if _, err := ParseEntryIntent(string(input.Intent)); err != nil {
		return time.Time{}, utils.NewEntryValidationError(index, "intent", "unknown intent")
	}
	return date, nil
}

// CommitTimeRecords converts a resolved batch into records in ONE transaction.
// Partial failure is surfaced as failure of the whole batch; nothing is
// committed unless everything is.
func CommitTimeRecords(ctx context.Context, inputs []*TimeRecordInput) (*CommitResult, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if len(inputs) == 0 {
		return nil, utils.NewValidationError("entries", "nothing to commit")
	}

	records := make([]*TimeRecord, 0, len(inputs))
	result := CommitResult{}
	touched := make([]int, 0, len(inputs))
	for i, input := range inputs {
		date, err := input.validate(i)
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateResourceId[Project](ctx, userId, input.ProjectId); err != nil {
			return nil, utils.NewEntryValidationError(i, "projectId", "project not found")
		}
		records = append(records, &TimeRecord{
			UserId:          userId,
			ProjectId:       input.ProjectId,
			RecordDate:      date,
			Minutes:         input.Minutes,
			Category:        input.Category,
			Intent:          input.Intent,
			TaskDescription: strings.TrimSpace(input.TaskDescription),
			SourceText:      input.SourceText,
			Issues:          input.Issues,
		})
		if input.Intent == EntryIntentPlanned {
			result.PlannedCount++
		} else {
			result.DoneCount++
		}
		touched = append(touched, input.ProjectId)
	}
	result.ProjectIds = utils.UniqueSlice(touched)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&records).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	result.Inserted = len(records)
	for _, projectId := range result.ProjectIds {
		_ = utils.PushRecentProject(userId, projectId)
	}
	return &result, nil
}

// may return RecordNotFound
func GetTimeRecord(ctx context.Context, id int) (*TimeRecord, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	return utils.FetchModel[TimeRecord](ctx, userId, id)
}

// UpdateTimeRecord is the explicit edit operation; it re-validates the exact
// invariants the commit enforced.
func UpdateTimeRecord(ctx context.Context, id int, input *TimeRecordInput) (*TimeRecord, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	record, err := utils.FetchModel[TimeRecord](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	date, err := input.validate(-1)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Project](ctx, userId, input.ProjectId); err != nil {
		return nil, utils.NewValidationError("projectId", "project not found")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"ProjectId":       input.ProjectId,
		"RecordDate":      date,
		"Minutes":         input.Minutes,
		"Category":        input.Category,
		"Intent":          input.Intent,
		"TaskDescription": strings.TrimSpace(input.TaskDescription),
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[TimeRecord](ctx, userId, id)
}

func DeleteTimeRecord(ctx context.Context, id int) (*TimeRecord, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	record, err := utils.FetchModel[TimeRecord](ctx, userId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func ListTimeRecords(ctx context.Context, projectId *int, fromDate *string, toDate *string) ([]*TimeRecord, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId)
	if projectId != nil && *projectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", *projectId)
	}
	if fromDate != nil && *fromDate != "" {
		from, err := utils.ParseCalendarDate(*fromDate)
		if err != nil {
			return nil, utils.NewValidationError("fromDate", "must be an ISO calendar date")
		}
		dbCtx = dbCtx.Where("record_date >= ?", from)
	}
	if toDate != nil && *toDate != "" {
		to, err := utils.ParseCalendarDate(*toDate)
		if err != nil {
			return nil, utils.NewValidationError("toDate", "must be an ISO calendar date")
		}
		dbCtx = dbCtx.Where("record_date <= ?", to)
	}

	var records []*TimeRecord
	if err := dbCtx.Order("record_date DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ProjectTimeTotals is the aggregation basis of the rule engine: done-intent
// entries only, planned work never counts.
type ProjectTimeTotals struct {
	TotalMinutes    int `json:"total_minutes"`
	RevisionMinutes int `json:"revision_minutes"`
	RevisionCount   int `json:"revision_count"`
}

func GetProjectTimeTotals(ctx context.Context, projectId int) (*ProjectTimeTotals, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var totals ProjectTimeTotals
	err := db.WithContext(ctx).Model(&TimeRecord{}).
		Where("user_id = ? AND project_id = ? AND intent = ?", userId, projectId, EntryIntentDone).
		Select(
			"COALESCE(SUM(minutes), 0) AS total_minutes, "+
				"COALESCE(SUM(CASE WHEN category = ? THEN minutes ELSE 0 END), 0) AS revision_minutes, "+
				"COALESCE(SUM(CASE WHEN category = ? THEN 1 ELSE 0 END), 0) AS revision_count",
			EntryCategoryRevision, EntryCategoryRevision,
		).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
