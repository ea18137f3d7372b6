package db

import (
	"fmt"
	"strings"

	"failarchive/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open 连接数据库并执行迁移。DSN 以 sqlite: 开头时使用 SQLite，否则为 Postgres
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		conn *gorm.DB
		err  error
	)
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		conn, err = openSQLite(path, cfg)
	} else {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established", zap.String("dialect", conn.Dialector.Name()))

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return conn, nil
}

// OpenMemory 打开一个内存 SQLite 库，供测试和本地试用
func OpenMemory() (*gorm.DB, error) {
	conn, err := openSQLite(":memory:", &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// A single connection serialises writers and keeps an in-memory database alive.
func openSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	conn, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=on"), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.AnonymousToken{},
		&models.FailureRecord{},
		&models.ModerationRecord{},
		&models.ReuseRecord{},
		&models.ReuseNotification{},
		&models.KnowledgeExtraction{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
