package models

import (
	"gorm.io/gorm"
)

// Tag labels recipes for one user. The composite unique index keeps
// get-or-create to at most one row per (owner, name) even with
// concurrent writers.
type Tag struct {
	gorm.Model
	Name    string `gorm:"not null;uniqueIndex:idx_tags_owner_name" json:"name"`
	OwnerID uint   `gorm:"not null;uniqueIndex:idx_tags_owner_name" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
