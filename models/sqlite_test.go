package models_test

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

// setupTestDB points the global DB handle at a throwaway sqlite database with
// the same gorm config (naming, TranslateError) as production MySQL, and
// returns a context authenticated as a fresh user. File-based rather than
// :memory: so concurrent goroutines share one database.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tally_test.db")
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
		Email:    "tester@example.com",
		Password: "test-password-1",
	})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}

	ctx := utils.SetUserIdInContext(context.Background(), user.ID)
	return utils.SetUserEmailInContext(ctx, user.Email)
}

func createTestProject(t *testing.T, ctx context.Context, name string) *models.Project {
	t.Helper()
	project, err := models.CreateProject(ctx, &models.NewProject{
		Name:            name,
		ExpectedFee:     dec("2000"),
		ExpectedHours:   dec("40"),
		PlatformFeeRate: dec("0.20"),
		TaxRate:         dec("0.10"),
		ProgressPercent: 40,
	})
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}
	return project
}
