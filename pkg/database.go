package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SAP-F-2025/user-service/internal/config"
	"github.com/SAP-F-2025/user-service/internal/models"
)

const (
	dbMaxRetries    = 3
	dbRetryInterval = 5 * time.Second
)

// InitDatabase opens the postgres connection with a bounded retry policy and
// runs migrations. The returned handle is owned by the composition root and
// injected into the repositories; there is no ambient global connection.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		// Unique-constraint violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= dbMaxRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
		if err == nil {
			break
		}
		if attempt < dbMaxRetries {
			time.Sleep(dbRetryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", dbMaxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.User{}, &models.AuthEvent{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
