package database

import (
	"strings"
	"time"

	"github.com/princeprakhar/biz-directory/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database and brings the schema up to date.
func Init(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := Open(databaseURL, logLevel)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects to postgres and sizes the connection pool.
func Open(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema. The unique index on businesses.slug
// is what makes concurrent slug allocation safe.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Business{},
		&models.Review{},
	)
}

// LogLevelFor maps LOG_LEVEL onto gorm's SQL logger. Statements are logged
// at debug and trace; otherwise only slow queries and errors, and outside
// production an unset level logs statements too.
func LogLevelFor(level string, production bool) logger.LogLevel {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return logger.Info
	case "":
		if production {
			return logger.Warn
		}
		return logger.Info
	case "panic", "fatal", "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
