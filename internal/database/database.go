package database

import (
	"fmt"

	"github.com/tidesail/core/internal/config"
	"github.com/tidesail/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.MakeModel{},
		&models.DesignerModel{},
		&models.AttributeSectionModel{},
		&models.AttributeModel{},
		&models.SailboatModel{},
		&models.SailboatAttributeModel{},
		&models.SailboatImageModel{},
		&models.MediaModel{},
		&models.VesselModel{},
		&models.VesselImageModel{},
		&models.VesselAttributeModel{},
		&models.VesselGrant{},
		&models.VesselAccessRequestModel{},
		&models.ModerationModel{},
		&models.VesselNoteModel{},
		&models.NoteMessageModel{},
		&models.LogEntryModel{},
		&models.LogEntryLocationModel{},
		&models.LogEntryAttachmentModel{},
	)
}
