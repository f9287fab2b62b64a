package workflow_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
	"github.com/gigtally/tally_backend/workflow"
)

func setupEvaluationFixture(t *testing.T) (context.Context, *models.Project) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflow_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), config.InitGormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Use(config.NewUserGuardPlugin()); err != nil {
		t.Fatalf("install user guard: %v", err)
	}
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(nil) })
	models.MigrateTable()

	user, err := models.CreateUser(context.Background(), &models.NewUser{
		Email:    "workflow@example.com",
		Password: "test-password-1",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ctx := utils.SetUserIdInContext(context.Background(), user.ID)

	// 40h budget at 40% progress; 32h (1920 min) of development puts the
	// time-budget rule exactly at threshold while the revision rules stay
	// quiet.
	project, err := models.CreateProject(ctx, &models.NewProject{
		Name:            "Brand Refresh",
		ExpectedFee:     decimal.RequireFromString("2000"),
		ExpectedHours:   decimal.RequireFromString("40"),
		PlatformFeeRate: decimal.RequireFromString("0.20"),
		TaxRate:         decimal.RequireFromString("0.10"),
		ProgressPercent: 40,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	_, err = models.CommitTimeRecords(ctx, []*models.TimeRecordInput{
		{ProjectId: project.ID, Date: "2026-08-20", Minutes: 960, Category: models.EntryCategoryDevelopment, Intent: models.EntryIntentDone},
		{ProjectId: project.ID, Date: "2026-08-21", Minutes: 960, Category: models.EntryCategoryDevelopment, Intent: models.EntryIntentDone},
	})
	if err != nil {
		t.Fatalf("commit records: %v", err)
	}
	return ctx, project
}

func reshapeBudget(t *testing.T, ctx context.Context, project *models.Project, hours string) {
	t.Helper()
	_, err := models.UpdateProject(ctx, project.ID, &models.NewProject{
		Name:            project.Name,
		ExpectedFee:     project.ExpectedFee,
		ExpectedHours:   decimal.RequireFromString(hours),
		PlatformFeeRate: project.PlatformFeeRate,
		TaxRate:         project.TaxRate,
		ProgressPercent: project.ProgressPercent,
	})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
}

func TestEvaluateAlertLifecycle(t *testing.T) {
	ctx, project := setupEvaluationFixture(t)

	// First evaluation: the time-budget rule newly crosses and alerts.
	result, err := workflow.EvaluateProjectAlerts(ctx, project.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.CreatedAlerts) != 1 || result.CreatedAlerts[0].AlertType != models.AlertTypeTimeBudget {
		t.Fatalf("created = %+v, want one time-budget alert", result.CreatedAlerts)
	}
	if result.TriggeredRules != 1 {
		t.Errorf("triggered = %d, want 1", result.TriggeredRules)
	}
	alertId := result.CreatedAlerts[0].ID

	// Re-evaluating the same numbers is a no-op on the active alert.
	result, err = workflow.EvaluateProjectAlerts(ctx, project.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(result.CreatedAlerts) != 0 {
		t.Fatalf("re-evaluation created alerts: %+v", result.CreatedAlerts)
	}
	if len(result.AlreadyActive) != 1 || result.AlreadyActive[0] != models.AlertTypeTimeBudget {
		t.Errorf("already active = %v", result.AlreadyActive)
	}

	// Dismissal is terminal for this occurrence: the rule is still true,
	// but re-evaluation must not bring the alert back.
	if _, err := models.DismissAlert(ctx, alertId); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	result, err = workflow.EvaluateProjectAlerts(ctx, project.ID)
	if err != nil {
		t.Fatalf("evaluate after dismissal: %v", err)
	}
	if len(result.CreatedAlerts) != 0 || len(result.AlreadyActive) != 0 {
		t.Fatalf("dismissed occurrence re-alerted: %+v", result)
	}
	if pending, err := models.GetPendingAlert(ctx, project.ID); err != nil || pending != nil {
		t.Fatalf("pending after dismissal = %v, %v", pending, err)
	}

	// Raising the budget takes the rule under threshold; shrinking it back
	// is a fresh crossing and alerts again.
	reshapeBudget(t, ctx, project, "100")
	if result, err = workflow.EvaluateProjectAlerts(ctx, project.ID); err != nil {
		t.Fatalf("evaluate under threshold: %v", err)
	} else if result.TriggeredRules != 0 {
		t.Fatalf("rule still triggered at 100h budget: %+v", result)
	}

	reshapeBudget(t, ctx, project, "40")
	result, err = workflow.EvaluateProjectAlerts(ctx, project.ID)
	if err != nil {
		t.Fatalf("evaluate after re-crossing: %v", err)
	}
	if len(result.CreatedAlerts) != 1 || result.CreatedAlerts[0].AlertType != models.AlertTypeTimeBudget {
		t.Fatalf("re-crossing did not alert: %+v", result)
	}
	if result.CreatedAlerts[0].ID == alertId {
		t.Error("re-crossing reused the dismissed row")
	}
}

// A batch commit touching several projects evaluates each one independently.
func TestEvaluateProjectsIndependent(t *testing.T) {
	ctx, project := setupEvaluationFixture(t)

	healthy, err := models.CreateProject(ctx, &models.NewProject{
		Name:            "Marketing Site",
		ExpectedFee:     decimal.RequireFromString("3000"),
		ExpectedHours:   decimal.RequireFromString("60"),
		PlatformFeeRate: decimal.RequireFromString("0.10"),
		TaxRate:         decimal.RequireFromString("0.19"),
		ProgressPercent: 70,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := models.CommitTimeRecords(ctx, []*models.TimeRecordInput{
		{ProjectId: healthy.ID, Date: "2026-08-22", Minutes: 120, Category: models.EntryCategoryDevelopment, Intent: models.EntryIntentDone},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	results := workflow.EvaluateProjects(ctx, []int{project.ID, healthy.ID})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(results[0].CreatedAlerts) != 1 {
		t.Errorf("creeping project alerts = %+v", results[0].CreatedAlerts)
	}
	if len(results[1].CreatedAlerts) != 0 || results[1].TriggeredRules != 0 {
		t.Errorf("healthy project alerted: %+v", results[1])
	}
}
