package db

import (
	"time"

	"github.com/safeguardhq/trustguard/pkg/logger"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// WithLogger defines a function to configure DB connection.
func WithLogger(log *logger.Logger) DBOptions {
	return func(db *gorm.DB) error {
		db.Config.Logger = gormLogger.New(
			log.Log,
			gormLogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogger.Info,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		)
		return nil
	}
}

// WithIndexes executes raw index DDL that GORM tags cannot express,
// notably the partial unique indexes the moderation invariants rely on.
func WithIndexes(statements ...string) DBOptions {
	return func(db *gorm.DB) error {
		for _, stmt := range statements {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}
}
