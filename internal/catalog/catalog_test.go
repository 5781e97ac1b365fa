package catalog

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recipebox/models"
)

func newTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Ingredient{}); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGetOrCreateTagInsertsOnMiss(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-insert")

	tag, err := GetOrCreateTag(context.Background(), db, 1, "Thai")
	if err != nil {
		t.Fatalf("GetOrCreateTag returned error: %v", err)
	}
	if tag.ID == 0 {
		t.Fatal("expected inserted tag to have an id")
	}
	if tag.Name != "Thai" || tag.OwnerID != 1 {
		t.Fatalf("unexpected tag row: %+v", tag)
	}
}

func TestGetOrCreateTagReusesExistingRow(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-reuse")

	existing := models.Tag{Name: "Indian", OwnerID: 1}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	tag, err := GetOrCreateTag(context.Background(), db, 1, "Indian")
	if err != nil {
		t.Fatalf("GetOrCreateTag returned error: %v", err)
	}
	if tag.ID != existing.ID {
		t.Fatalf("expected existing row %d to be reused, got %d", existing.ID, tag.ID)
	}

	var count int64
	if err := db.Model(&models.Tag{}).Where("owner_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one tag row, got %d", count)
	}
}

func TestGetOrCreateTagIsPerOwner(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-owner")

	first, err := GetOrCreateTag(context.Background(), db, 1, "Comfort Food")
	if err != nil {
		t.Fatalf("GetOrCreateTag for first owner: %v", err)
	}
	second, err := GetOrCreateTag(context.Background(), db, 2, "Comfort Food")
	if err != nil {
		t.Fatalf("GetOrCreateTag for second owner: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected same-named tags of different owners to be distinct rows")
	}
}

func TestGetOrCreateTagTrimsName(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-trim")

	tag, err := GetOrCreateTag(context.Background(), db, 1, "  Dessert  ")
	if err != nil {
		t.Fatalf("GetOrCreateTag returned error: %v", err)
	}
	if tag.Name != "Dessert" {
		t.Fatalf("expected trimmed name, got %q", tag.Name)
	}

	again, err := GetOrCreateTag(context.Background(), db, 1, "Dessert")
	if err != nil {
		t.Fatalf("GetOrCreateTag second call: %v", err)
	}
	if again.ID != tag.ID {
		t.Fatalf("expected trimmed and plain names to resolve to one row")
	}
}

func TestGetOrCreateTagRejectsEmptyName(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-empty")

	if _, err := GetOrCreateTag(context.Background(), db, 1, "   "); err == nil {
		t.Fatal("expected error for blank tag name")
	}
}

func TestGetOrCreateIngredientInsertsAndReuses(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t, "catalog-ingredient")

	first, err := GetOrCreateIngredient(context.Background(), db, 3, "Lemongrass")
	if err != nil {
		t.Fatalf("GetOrCreateIngredient returned error: %v", err)
	}
	second, err := GetOrCreateIngredient(context.Background(), db, 3, "Lemongrass")
	if err != nil {
		t.Fatalf("GetOrCreateIngredient second call: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one row for repeated name, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one ingredient row, got %d", count)
	}
}
