package models_test

import (
	"context"
	"sync"
	"testing"

	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

func countActiveAlerts(t *testing.T, ctx context.Context, projectId int) int {
	t.Helper()
	alerts, err := models.ListActiveAlerts(ctx, &projectId)
	if err != nil {
		t.Fatalf("ListActiveAlerts: %v", err)
	}
	return len(alerts)
}

func TestCreateAlertIfAbsentIdempotent(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	outcome, alert, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeRevisionCount, models.AlertMetadata{Threshold: dec("5")})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if outcome != models.AlertCreated || alert == nil {
		t.Fatalf("first create: outcome=%s alert=%v", outcome, alert)
	}

	outcome, again, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeRevisionCount, models.AlertMetadata{Threshold: dec("5")})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if outcome != models.AlertAlreadyActive {
		t.Fatalf("second create: outcome=%s, want AlreadyActive", outcome)
	}
	if again.ID != alert.ID {
		t.Errorf("AlreadyActive returned a different alert: %d != %d", again.ID, alert.ID)
	}
	if got := countActiveAlerts(t, ctx, project.ID); got != 1 {
		t.Errorf("active alerts = %d, want 1", got)
	}

	// A different type for the same project is independent.
	outcome, _, err = models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeTimeBudget, models.AlertMetadata{Threshold: dec("0.8")})
	if err != nil || outcome != models.AlertCreated {
		t.Fatalf("different type: outcome=%s err=%v", outcome, err)
	}
	if got := countActiveAlerts(t, ctx, project.ID); got != 2 {
		t.Errorf("active alerts = %d, want 2", got)
	}
}

// Concurrent evaluations racing on the same (project, type) must end with
// exactly one active row, whichever goroutine wins the insert.
func TestCreateAlertIfAbsentConcurrent(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeRevisionShare, models.AlertMetadata{Threshold: dec("0.4")})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Errorf("concurrent create: %v", err)
		}
	}
	if got := countActiveAlerts(t, ctx, project.ID); got != 1 {
		t.Errorf("active alerts after race = %d, want 1", got)
	}
}

func TestDismissAlertLifecycle(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	_, alert, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeTimeBudget, models.AlertMetadata{Threshold: dec("0.8")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dismissed, err := models.DismissAlert(ctx, alert.ID)
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if dismissed.DismissedAt == nil || dismissed.ActiveKey != nil {
		t.Errorf("dismissed alert not closed: %+v", dismissed)
	}
	if got := countActiveAlerts(t, ctx, project.ID); got != 0 {
		t.Errorf("active alerts after dismissal = %d, want 0", got)
	}

	// Dismissal is terminal for that occurrence.
	if _, err := models.DismissAlert(ctx, alert.ID); err != utils.ErrorRecordNotFound {
		t.Errorf("second dismissal: got %v, want ErrorRecordNotFound", err)
	}

	// createIfAbsent only considers active rows; a dismissed row never
	// blocks a later insert (occurrence gating is the rule engine's job).
	outcome, fresh, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeTimeBudget, models.AlertMetadata{Threshold: dec("0.8")})
	if err != nil || outcome != models.AlertCreated {
		t.Fatalf("re-create after dismissal: outcome=%s err=%v", outcome, err)
	}
	if fresh.ID == alert.ID {
		t.Error("re-created alert reused the dismissed row")
	}
}

func TestGetPendingAlertReturnsOldest(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	if pending, err := models.GetPendingAlert(ctx, project.ID); err != nil || pending != nil {
		t.Fatalf("pending on clean project: %v, %v", pending, err)
	}

	_, first, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeTimeBudget, models.AlertMetadata{Threshold: dec("0.8")})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, _, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeRevisionCount, models.AlertMetadata{Threshold: dec("5")}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	pending, err := models.GetPendingAlert(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetPendingAlert: %v", err)
	}
	if pending == nil || pending.ID != first.ID {
		t.Errorf("pending = %+v, want oldest alert %d", pending, first.ID)
	}
}

func TestDismissAlertForeignUser(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	_, alert, err := models.CreateAlertIfAbsent(ctx, project.ID, models.AlertTypeTimeBudget, models.AlertMetadata{Threshold: dec("0.8")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := models.CreateUser(context.Background(), &models.NewUser{
		Email:    "other@example.com",
		Password: "other-password",
	})
	if err != nil {
		t.Fatalf("create other user: %v", err)
	}
	otherCtx := utils.SetUserIdInContext(context.Background(), other.ID)

	if _, err := models.DismissAlert(otherCtx, alert.ID); err != utils.ErrorRecordNotFound {
		t.Errorf("foreign dismissal: got %v, want ErrorRecordNotFound", err)
	}
	if got := countActiveAlerts(t, ctx, project.ID); got != 1 {
		t.Errorf("alert dismissed by foreign user; active = %d, want 1", got)
	}
}
