package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, ok, err := NewCredentialRepository(db).Get(ctx, "accessToken")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("missing key should report absent")
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		if err := repo.Set(ctx, "accessToken", "tok-1"); err != nil {
			t.Fatalf("failed to set credential: %v", err)
		}

		value, ok, err := repo.Get(ctx, "accessToken")
		if err != nil || !ok {
			t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
		}
		if value != "tok-1" {
			t.Errorf("expected tok-1, got %s", value)
		}
	})

	t.Run("Set Replaces", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		_ = repo.Set(ctx, "accessToken", "old")
		if err := repo.Set(ctx, "accessToken", "new"); err != nil {
			t.Fatalf("failed to replace credential: %v", err)
		}

		value, _, _ := repo.Get(ctx, "accessToken")
		if value != "new" {
			t.Errorf("expected new, got %s", value)
		}

		keys, err := repo.Keys(ctx)
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 1 {
			t.Errorf("expected a single row after replace, got %v", keys)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		_ = repo.Set(ctx, "user", `{"_id":"u1"}`)

		if err := repo.Delete(ctx, "user"); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}
		if _, ok, _ := repo.Get(ctx, "user"); ok {
			t.Error("deleted key should be absent")
		}

		if err := repo.Delete(ctx, "user"); err != nil {
			t.Errorf("deleting a missing key should succeed, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		_ = repo.Set(ctx, "accessToken", "tok")
		_ = repo.Set(ctx, "refreshToken", "ref")

		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		keys, _ := repo.Keys(ctx)
		if len(keys) != 0 {
			t.Errorf("expected no keys after clear, got %v", keys)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewCredentialRepository(db)
		if _, _, err := repo.Get(ctx, "accessToken"); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Set(ctx, "accessToken", "tok"); err == nil {
			t.Error("expected error from closed database")
		}
	})
}

func TestExportRunRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewExportRunRepository(db)
		run := models.NewExportRun("videos", "csv", "/tmp/out")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Fatal("run ID should be set after creation")
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Format() != "csv" || got.OutputDir() != "/tmp/out" {
			t.Errorf("unexpected run %+v", got)
		}
		if got.CompletedAt() != nil {
			t.Error("new run should not be completed")
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewExportRunRepository(db).Create(models.NewExportRun("videos", "", "/tmp")); err == nil {
			t.Error("expected validation error for missing format")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewExportRunRepository(db)
		run := models.NewExportRun("videos", "json", "/tmp/out")
		_ = repo.Create(run)

		run.SetCounts(3, 27)
		run.Complete(errors.New("page 4: network error"))

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Items() != 27 || got.Pages() != 3 {
			t.Errorf("expected 3 pages and 27 items, got %d/%d", got.Pages(), got.Items())
		}
		if got.ErrorMessage() != "page 4: network error" {
			t.Errorf("unexpected error message %q", got.ErrorMessage())
		}
		if got.Succeeded() {
			t.Error("failed run should not report success")
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := models.NewExportRun("videos", "json", "/tmp/out")
		run.SetID("missing")
		if err := NewExportRunRepository(db).Update(run); err == nil {
			t.Error("expected error updating a missing run")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewExportRunRepository(db)
		run := models.NewExportRun("videos", "json", "/tmp/out")
		_ = repo.Create(run)

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("expected error getting deleted run")
		}
		if err := repo.Delete(run.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewExportRunRepository(db)
		base := time.Now().UTC().Add(-time.Hour)
		for i, resource := range []string{"videos", "history", "videos"} {
			run := models.NewExportRun(resource, "json", "/tmp/out")
			run.SetStartedAt(base.Add(time.Duration(i) * time.Minute))
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if !all[0].StartedAt().After(all[2].StartedAt()) {
			t.Error("runs should be listed newest first")
		}

		videos, _ := repo.List(map[string]any{"resource": "videos"})
		if len(videos) != 2 {
			t.Errorf("expected 2 video runs, got %d", len(videos))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected 1 run with limit, got %d", len(limited))
		}
	})
}
