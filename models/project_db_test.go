package models_test

import (
	"context"
	"testing"

	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

// Ownership failures are indistinguishable from missing rows, whether the
// project is served from the database or from cache.
func TestGetProjectForeignUser(t *testing.T) {
	ctx := setupTestDB(t)
	project := createTestProject(t, ctx, "Brand Refresh")

	other, err := models.CreateUser(context.Background(), &models.NewUser{
		Email:    "other@example.com",
		Password: "other-password",
	})
	if err != nil {
		t.Fatalf("create other user: %v", err)
	}
	otherCtx := utils.SetUserIdInContext(context.Background(), other.ID)

	if _, err := models.GetProject(otherCtx, project.ID); err != utils.ErrorRecordNotFound {
		t.Errorf("foreign project read: got %v, want ErrorRecordNotFound", err)
	}

	if got, err := models.GetProject(ctx, project.ID); err != nil || got.ID != project.ID {
		t.Errorf("owner read broken: %v, %v", got, err)
	}
}
