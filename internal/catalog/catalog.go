// Package catalog owns the per-user tag and ingredient rows that recipes
// reference. Lookups are keyed by (owner, name); inserts on miss rely on the
// composite unique index, so two concurrent writers naming the same new value
// converge on a single row.
package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"recipebox/models"
)

var errEmptyName = errors.New("catalog: name must not be empty")

// GetOrCreateTag returns the tag named name for ownerID, inserting it first
// if no such row exists yet.
func GetOrCreateTag(ctx context.Context, tx *gorm.DB, ownerID uint, name string) (*models.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errEmptyName
	}
	tag := &models.Tag{Name: trimmed, OwnerID: ownerID}
	if err := getOrCreate(ctx, tx, tag, ownerID, trimmed); err != nil {
		return nil, err
	}
	return tag, nil
}

// GetOrCreateIngredient returns the ingredient named name for ownerID,
// inserting it first if no such row exists yet.
func GetOrCreateIngredient(ctx context.Context, tx *gorm.DB, ownerID uint, name string) (*models.Ingredient, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errEmptyName
	}
	ingredient := &models.Ingredient{Name: trimmed, OwnerID: ownerID}
	if err := getOrCreate(ctx, tx, ingredient, ownerID, trimmed); err != nil {
		return nil, err
	}
	return ingredient, nil
}

func getOrCreate[T any](ctx context.Context, tx *gorm.DB, record *T, ownerID uint, name string) error {
	err := tx.WithContext(ctx).Where("owner_id = ? AND name = ?", ownerID, name).First(record).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// Lost the insert race; the winning row is authoritative.
		return tx.WithContext(ctx).Where("owner_id = ? AND name = ?", ownerID, name).First(record).Error
	}
	return nil
}
