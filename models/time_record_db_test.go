package models_test

import (
	"testing"

	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

func TestCommitTimeRecordsBatch(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	inputs := []*models.TimeRecordInput{
		{ProjectId: project.ID, Date: "2026-08-20", Minutes: 120, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone, TaskDescription: "logo drafts"},
		{ProjectId: project.ID, Date: "2026-08-21", Minutes: 60, Category: models.EntryCategoryRevision, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-25", Minutes: 90, Category: models.EntryCategoryMeeting, Intent: models.EntryIntentPlanned},
	}
	result, err := models.CommitTimeRecords(ctx, inputs)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Inserted != 3 || result.DoneCount != 2 || result.PlannedCount != 1 {
		t.Errorf("result = %+v, want 3 inserted, 2 done, 1 planned", result)
	}
	if len(result.ProjectIds) != 1 || result.ProjectIds[0] != project.ID {
		t.Errorf("touched projects = %v", result.ProjectIds)
	}

	records, err := models.ListTimeRecords(ctx, &project.ID, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("listed %d records, want 3", len(records))
	}

	// Every committed candidate survives the round trip unchanged.
	byDate := make(map[string]*models.TimeRecord, len(records))
	for _, r := range records {
		byDate[utils.FormatCalendarDate(r.RecordDate)] = r
	}
	for _, in := range inputs {
		got, ok := byDate[in.Date]
		if !ok {
			t.Errorf("no record for date %s", in.Date)
			continue
		}
		if got.Minutes != in.Minutes || got.Category != in.Category ||
			got.Intent != in.Intent || got.TaskDescription != in.TaskDescription {
			t.Errorf("record for %s = %+v, want %+v", in.Date, got, in)
		}
	}
}

// One bad entry aborts the whole batch and names its index; nothing is
// persisted.
func TestCommitTimeRecordsAtomicOnFailure(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	inputs := []*models.TimeRecordInput{
		{ProjectId: project.ID, Date: "2026-08-20", Minutes: 120, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-21", Minutes: 2000, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone},
	}
	_, err := models.CommitTimeRecords(ctx, inputs)
	ve, ok := utils.AsValidationError(err)
	if !ok {
		t.Fatalf("commit with bad minutes: got %v, want ValidationError", err)
	}
	if ve.EntryIndex != 1 || ve.Field != "minutes" {
		t.Errorf("validation error = %+v, want entry 1 / minutes", ve)
	}

	records, err := models.ListTimeRecords(ctx, &project.ID, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("%d records persisted from a failed batch, want 0", len(records))
	}

	// Unknown project also names the entry.
	inputs[1] = &models.TimeRecordInput{ProjectId: project.ID + 99, Date: "2026-08-21", Minutes: 30, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone}
	_, err = models.CommitTimeRecords(ctx, inputs)
	if ve, ok := utils.AsValidationError(err); !ok || ve.EntryIndex != 1 || ve.Field != "projectId" {
		t.Errorf("commit against unknown project: got %v", err)
	}
}

// Rule aggregation only counts done-intent entries; planned work and other
// projects never move the totals.
func TestGetProjectTimeTotals(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")
	other := createTestProject(t, ctx, "Marketing Site")

	inputs := []*models.TimeRecordInput{
		{ProjectId: project.ID, Date: "2026-08-20", Minutes: 300, Category: models.EntryCategoryDevelopment, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-21", Minutes: 100, Category: models.EntryCategoryRevision, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-22", Minutes: 80, Category: models.EntryCategoryRevision, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-25", Minutes: 500, Category: models.EntryCategoryRevision, Intent: models.EntryIntentPlanned},
		{ProjectId: other.ID, Date: "2026-08-25", Minutes: 240, Category: models.EntryCategoryRevision, Intent: models.EntryIntentDone},
	}
	if _, err := models.CommitTimeRecords(ctx, inputs); err != nil {
		t.Fatalf("commit: %v", err)
	}

	totals, err := models.GetProjectTimeTotals(ctx, project.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.TotalMinutes != 480 || totals.RevisionMinutes != 180 || totals.RevisionCount != 2 {
		t.Errorf("totals = %+v, want 480/180/2", totals)
	}
}

func TestUpdateAndDeleteTimeRecord(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	result, err := models.CommitTimeRecords(ctx, []*models.TimeRecordInput{
		{ProjectId: project.ID, Date: "2026-08-20", Minutes: 60, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone},
	})
	if err != nil || result.Inserted != 1 {
		t.Fatalf("commit: %v", err)
	}
	records, err := models.ListTimeRecords(ctx, &project.ID, nil, nil)
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %v", err)
	}
	id := records[0].ID

	updated, err := models.UpdateTimeRecord(ctx, id, &models.TimeRecordInput{
		ProjectId: project.ID,
		Date:      "2026-08-21",
		Minutes:   90,
		Category:  models.EntryCategoryRevision,
		Intent:    models.EntryIntentDone,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Minutes != 90 || updated.Category != models.EntryCategoryRevision {
		t.Errorf("updated record = %+v", updated)
	}

	// Edits re-validate commit invariants.
	if _, err := models.UpdateTimeRecord(ctx, id, &models.TimeRecordInput{
		ProjectId: project.ID, Date: "2026-08-21", Minutes: 0, Category: models.EntryCategoryDesign,
	}); err == nil {
		t.Error("update with zero minutes accepted")
	}

	if _, err := models.DeleteTimeRecord(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := models.GetTimeRecord(ctx, id); err != utils.ErrorRecordNotFound {
		t.Errorf("get after delete: got %v, want ErrorRecordNotFound", err)
	}
}
