// seed-demo provisions a demo account with two projects: one deep in scope
// creep (all three rules over threshold) and one healthy, plus the time
// records and fixed costs behind their numbers. Safe to rerun; it exits if
// the demo user already exists.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
	"github.com/gigtally/tally_backend/workflow"
)

const (
	demoEmail    = "demo@gigtally.dev"
	demoPassword = "demo-password-1"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	if _, err := models.GetUserByEmail(ctx, demoEmail); err == nil {
		fmt.Printf("demo user %q already exists; nothing to do\n", demoEmail)
		return
	}

	user, err := models.CreateUser(ctx, &models.NewUser{
		Email:       demoEmail,
		Password:    demoPassword,
		DisplayName: "Demo Freelancer",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create demo user: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserEmailInContext(ctx, user.Email)

	if _, err := models.CreateFixedCost(ctx, &models.NewFixedCost{
		Name:   "Design tool subscription",
		Amount: decimal.RequireFromString("50"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create fixed cost: %v\n", err)
		os.Exit(1)
	}

	// A project that has spent 47h of a 40h budget at 40% progress, with a
	// 1140/2820 revision share spread over 7 revision entries. Every scope
	// rule fires.
	creeping, err := models.CreateProject(ctx, &models.NewProject{
		Name:            "Brand Refresh",
		ClientName:      "Helio Studio",
		ExpectedFee:     decimal.RequireFromString("2000"),
		ExpectedHours:   decimal.RequireFromString("40"),
		PlatformFeeRate: decimal.RequireFromString("0.20"),
		TaxRate:         decimal.RequireFromString("0.10"),
		ProgressPercent: 40,
		Aliases:         []string{"helio", "brand refresh"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create project: %v\n", err)
		os.Exit(1)
	}

	// A healthy counterpart well inside its budget.
	healthy, err := models.CreateProject(ctx, &models.NewProject{
		Name:            "Marketing Site",
		ClientName:      "Nordwind GmbH",
		ExpectedFee:     decimal.RequireFromString("3000"),
		ExpectedHours:   decimal.RequireFromString("60"),
		PlatformFeeRate: decimal.RequireFromString("0.10"),
		TaxRate:         decimal.RequireFromString("0.19"),
		ProgressPercent: 70,
		Aliases:         []string{"nordwind"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create project: %v\n", err)
		os.Exit(1)
	}

	inputs := append(
		creepingEntries(creeping.ID),
		&models.TimeRecordInput{ProjectId: healthy.ID, Date: "2026-08-20", Minutes: 240, Category: models.EntryCategoryDevelopment, Intent: models.EntryIntentDone, TaskDescription: "landing page build"},
		&models.TimeRecordInput{ProjectId: healthy.ID, Date: "2026-08-21", Minutes: 120, Category: models.EntryCategoryDesign, Intent: models.EntryIntentDone, TaskDescription: "hero section variants"},
		&models.TimeRecordInput{ProjectId: healthy.ID, Date: "2026-08-24", Minutes: 60, Category: models.EntryCategoryRevision, Intent: models.EntryIntentDone, TaskDescription: "copy tweaks round 1"},
	)
	result, err := models.CommitTimeRecords(ctx, inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to commit records: %v\n", err)
		os.Exit(1)
	}

	evaluations := workflow.EvaluateProjects(ctx, result.ProjectIds)
	created := 0
	for _, ev := range evaluations {
		created += len(ev.CreatedAlerts)
	}

	fmt.Printf("seeded demo user %q with %d records across projects %v; %d scope alerts raised\n",
		demoEmail, result.Inserted, result.ProjectIds, created)
}

// creepingEntries totals 2820 done minutes, 1140 of them revision work in 7
// entries.
func creepingEntries(projectId int) []*models.TimeRecordInput {
	done := models.EntryIntentDone
	entries := []*models.TimeRecordInput{
		{ProjectId: projectId, Date: "2026-08-03", Minutes: 120, Category: models.EntryCategoryPlanning, Intent: done, TaskDescription: "kickoff and moodboards"},
		{ProjectId: projectId, Date: "2026-08-04", Minutes: 240, Category: models.EntryCategoryDesign, Intent: done, TaskDescription: "logo exploration"},
		{ProjectId: projectId, Date: "2026-08-05", Minutes: 300, Category: models.EntryCategoryDevelopment, Intent: done, TaskDescription: "style guide template"},
		{ProjectId: projectId, Date: "2026-08-06", Minutes: 300, Category: models.EntryCategoryDevelopment, Intent: done, TaskDescription: "asset export pipeline"},
		{ProjectId: projectId, Date: "2026-08-07", Minutes: 300, Category: models.EntryCategoryDevelopment, Intent: done, TaskDescription: "social kit"},
		{ProjectId: projectId, Date: "2026-08-10", Minutes: 300, Category: models.EntryCategoryDevelopment, Intent: done, TaskDescription: "presentation deck"},
		{ProjectId: projectId, Date: "2026-08-11", Minutes: 120, Category: models.EntryCategoryMeeting, Intent: done, TaskDescription: "client review call"},
		{ProjectId: projectId, Date: "2026-08-12", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "logo color revisions"},
		{ProjectId: projectId, Date: "2026-08-13", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "typography revisions"},
		{ProjectId: projectId, Date: "2026-08-14", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "third logo direction"},
		{ProjectId: projectId, Date: "2026-08-17", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "stationery revisions"},
		{ProjectId: projectId, Date: "2026-08-18", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "deck layout revisions"},
		{ProjectId: projectId, Date: "2026-08-19", Minutes: 160, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "fourth logo direction"},
		{ProjectId: projectId, Date: "2026-08-20", Minutes: 180, Category: models.EntryCategoryRevision, Intent: done, TaskDescription: "final polish round"},
	}
	return entries
}
