package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sbpickleball/match_app/internal/config"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Region{},
		&models.Profile{},
		&models.MatchRequest{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.Message{},
		&models.UserReview{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedRegions makes sure the configured default region exists.
func SeedRegions(ctx context.Context, regions repositories.RegionStore, names ...string) error {
	for _, name := range names {
		region, err := regions.EnsureRegion(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to seed region %q: %w", name, err)
		}
		logger.Info("Region ready", "name", region.Name, "slug", region.Slug)
	}
	return nil
}
