package models

import (
	"gorm.io/gorm"
)

// Ingredient is a named component of recipes, owned by one user and
// unique per (owner, name) like Tag.
type Ingredient struct {
	gorm.Model
	Name    string `gorm:"not null;uniqueIndex:idx_ingredients_owner_name" json:"name"`
	OwnerID uint   `gorm:"not null;uniqueIndex:idx_ingredients_owner_name" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
