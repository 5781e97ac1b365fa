package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "recipebox/internal/log"
	"recipebox/models"
)

// New returns an in-memory sqlite database seeded with representative
// recipe data, useful for local development without Postgres.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:recipebox-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("homecooking"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Sam Kitchen",
		Email:        "sam@recipebox.app",
		PasswordHash: string(password),
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	thai := models.Tag{Name: "Thai", OwnerID: user.ID}
	dessert := models.Tag{Name: "Dessert", OwnerID: user.ID}
	for _, tag := range []*models.Tag{&thai, &dessert} {
		if err := db.WithContext(ctx).Create(tag).Error; err != nil {
			return err
		}
	}

	lemongrass := models.Ingredient{Name: "Lemongrass", OwnerID: user.ID}
	coconutMilk := models.Ingredient{Name: "Coconut Milk", OwnerID: user.ID}
	chocolate := models.Ingredient{Name: "Dark Chocolate", OwnerID: user.ID}
	for _, ingredient := range []*models.Ingredient{&lemongrass, &coconutMilk, &chocolate} {
		if err := db.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	curry := models.Recipe{
		OwnerID:     user.ID,
		Title:       "Green Curry",
		TimeMinutes: 35,
		Price:       12.50,
		Link:        "https://example.com/green-curry",
		Description: "Fragrant coconut curry with lemongrass and lime leaves.",
	}
	if err := db.WithContext(ctx).Create(&curry).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&curry).Association("Tags").Append(&thai); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&curry).Association("Ingredients").Append(&lemongrass, &coconutMilk); err != nil {
		return err
	}

	mousse := models.Recipe{
		OwnerID:     user.ID,
		Title:       "Chocolate Mousse",
		TimeMinutes: 20,
		Price:       6.00,
		Description: "Airy two-ingredient mousse, best chilled overnight.",
	}
	if err := db.WithContext(ctx).Create(&mousse).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&mousse).Association("Tags").Append(&dessert); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&mousse).Association("Ingredients").Append(&chocolate); err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "userID", user.ID)
	return nil
}
