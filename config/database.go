package config

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/siparist/database"
	"github.com/yeremiapane/siparist/utils"
)

// InitDB opens the configured database and migrates it.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("driver", cfg.DBDriver).Info("Database connected")
	return db, nil
}
