// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(cfg.GormLogLevel()),
		// Project and customer ids are owned by external systems and may be
		// recorded before those rows exist locally.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{"host": cfg.Host, "database": cfg.Database}).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Account{},
		&models.Project{},
		&models.Customer{},
		&models.Product{},
		&models.Component{},
		&models.Issue{},
		&models.Event{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Product serials are unique once set
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_serial_unique ON products(serial) WHERE serial <> ''",
		"CREATE INDEX IF NOT EXISTS idx_products_project_situation ON products(project_id, situation)",
		"CREATE INDEX IF NOT EXISTS idx_products_handed_over ON products(handed_over_time DESC)",

		// Component tree walks
		"CREATE INDEX IF NOT EXISTS idx_components_parent_level ON components(parent_id, level)",
		"CREATE INDEX IF NOT EXISTS idx_components_product_situation ON components(product_id, situation)",

		// Situation counts
		"CREATE INDEX IF NOT EXISTS idx_issues_component_status ON issues(component_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_issues_component_stop_fighting ON issues(component_id, stop_fighting) WHERE status <> 'PROCESSED'",
		"CREATE INDEX IF NOT EXISTS idx_issues_project_reason ON issues(project_id, reason)",

		// Detail pages
		"CREATE INDEX IF NOT EXISTS idx_events_issue ON events(issue_id, id)",
		"CREATE INDEX IF NOT EXISTS idx_events_product ON events(product_id, id)",
		"CREATE INDEX IF NOT EXISTS idx_events_component ON events(component_id, id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// AccountSeeder is the slice of the store needed to seed the admin account.
type AccountSeeder interface {
	CountAccountsByRole(ctx context.Context, role models.Role) (int64, error)
	CreateAccount(ctx context.Context, a *models.Account) error
}

// SeedInitialData creates the admin account when no admin exists yet. When
// no password is configured a random one is generated and returned.
func SeedInitialData(ctx context.Context, store AccountSeeder, admin config.AdminConfig) (string, error) {
	adminCount, err := store.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to count admin accounts: %w", err)
	}
	if adminCount > 0 {
		return "", nil
	}

	password := admin.Password
	generated := ""
	if password == "" {
		if password, err = utils.GenerateRandomString(20); err != nil {
			return "", fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = password
	}

	account := &models.Account{
		Email: admin.Email,
		Name:  admin.Name,
		Role:  models.RoleAdmin,
	}
	if err := account.SetPassword(password); err != nil {
		return "", fmt.Errorf("failed to set admin password: %w", err)
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		return "", fmt.Errorf("failed to create admin account: %w", err)
	}

	logrus.WithField("email", admin.Email).Info("Default admin account created")
	return generated, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
