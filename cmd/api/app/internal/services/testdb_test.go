package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cwmaia/townhub/pkg/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and serializes writes
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Town{},
		&models.Business{},
		&models.Place{},
		&models.Event{},
		&models.User{},
		&models.Profile{},
		&models.Session{},
		&models.QuotaCounter{},
		&models.BusinessSubscription{},
		&models.PlaceSubscription{},
		&models.DeviceToken{},
		&models.Notification{},
		&models.NotificationDelivery{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func seedTown(t *testing.T, db *gorm.DB) *models.Town {
	t.Helper()
	town := &models.Town{Name: "Riverton " + uuid.NewString()[:8], Slug: uuid.NewString()[:8]}
	if err := db.Create(town).Error; err != nil {
		t.Fatalf("failed to seed town: %v", err)
	}
	return town
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@example.com", Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedBusiness(t *testing.T, db *gorm.DB, town *models.Town, owner *models.User, plan string) *models.Business {
	t.Helper()
	business := &models.Business{
		TownID:  town.ID,
		OwnerID: owner.ID,
		Name:    "Corner Bakery " + uuid.NewString()[:8],
		Tags:    "bakery,coffee",
		Plan:    plan,
	}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("failed to seed business: %v", err)
	}
	return business
}

func seedPlace(t *testing.T, db *gorm.DB, town *models.Town) *models.Place {
	t.Helper()
	place := &models.Place{
		TownID: town.ID,
		Name:   "Town Square " + uuid.NewString()[:8],
	}
	if err := db.Create(place).Error; err != nil {
		t.Fatalf("failed to seed place: %v", err)
	}
	return place
}

func futureReset() time.Time {
	return time.Now().AddDate(0, 1, 0)
}
