package models

import (
	"gorm.io/gorm"
)

type Recipe struct {
	gorm.Model
	OwnerID     uint    `gorm:"not null;index" json:"owner_id"`
	Owner       *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title       string  `gorm:"not null" json:"title"`
	TimeMinutes int     `gorm:"not null;default:0" json:"time_minutes"`
	Price       float64 `gorm:"type:decimal(6,2)" json:"price"`
	Link        string  `json:"link"`
	Description string  `gorm:"type:text" json:"description"`
	Image       string  `json:"image"`

	// Relation sets. Tags and ingredients attached to a recipe always
	// belong to the recipe's owner.
	Tags        []Tag        `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients" json:"ingredients"`
}
