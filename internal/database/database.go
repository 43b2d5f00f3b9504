package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// Connect opens the database and runs migrations.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Role{},
		&models.Team{},
		&models.User{},
		&models.Session{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.CommentAttachment{},
		&models.Report{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Seed creates the fixed role set and the bootstrap admin account if missing.
func Seed(db *gorm.DB) error {
	for _, name := range models.SeededRoles() {
		var role models.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&models.Role{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to create role %q: %w", name, err)
			}
			log.Printf("Created role: %s", name)
		} else if err != nil {
			return err
		}
	}

	var admin models.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	if err == gorm.ErrRecordNotFound {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "admin123"
		}

		var adminRole models.Role
		if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
			return err
		}

		admin = models.User{
			Username: "admin",
			Email:    "admin@example.com",
			RoleID:   &adminRole.ID,
			IsAdmin:  true,
		}
		if err := admin.SetPassword(password); err != nil {
			return err
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Println("Created bootstrap admin user")
	} else if err != nil {
		return err
	}

	return nil
}
