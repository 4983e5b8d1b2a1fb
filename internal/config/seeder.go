package config

import (
	"log"
	"os"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedBootstrapData creates the initial staff account and site info row
// when the database is empty. Safe to run on every start.
func SeedBootstrapData(db *gorm.DB) error {
	if err := seedAdminUser(db); err != nil {
		return err
	}
	return seedSiteInfo(db)
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("is_staff = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@unibooks.local"
	}
	plain := os.Getenv("ADMIN_PASSWORD")
	if plain == "" {
		plain = "changeme123"
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:            "admin",
		Email:               email,
		Password:            hashed,
		FirstName:           "Admin",
		IsStaff:             true,
		IsLibrarian:         true,
		IsActive:            true,
		ForcePasswordChange: true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded bootstrap admin user: %s", email)
	return nil
}

func seedSiteInfo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.SiteInfo{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	info := &models.SiteInfo{
		DailyTip:     "Pensez à rendre vos livres à temps.",
		Announcement: "Bienvenue sur UniBooks.",
	}
	if err := db.Create(info).Error; err != nil {
		return err
	}

	log.Println("✅ Seeded default site info")
	return nil
}
