package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection and all model managers
type DB struct {
	*gorm.DB
	*AccountManager
	*WorkspaceManager
	*MembershipManager
	*TaskManager
	*IssueManager
	*CommentManager
	*MailManager
}

var _ Repository = (*DB)(nil)

// NewDB wraps an open connection pool with GORM and initializes all managers
func NewDB(sqlDB *sql.DB, logLevel string) (*DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(ParseLogLevel(logLevel)),
		TranslateError: true,
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return withManagers(gormDB), nil
}

// Open builds a DB directly on an existing GORM handle
func Open(gormDB *gorm.DB) *DB {
	return withManagers(gormDB)
}

func withManagers(gormDB *gorm.DB) *DB {
	return &DB{
		DB:                gormDB,
		AccountManager:    NewAccountManager(gormDB),
		WorkspaceManager:  NewWorkspaceManager(gormDB),
		MembershipManager: NewMembershipManager(gormDB),
		TaskManager:       NewTaskManager(gormDB),
		IssueManager:      NewIssueManager(gormDB),
		CommentManager:    NewCommentManager(gormDB),
		MailManager:       NewMailManager(gormDB),
	}
}

// Transaction runs a function within a database transaction
func (db *DB) Transaction(ctx context.Context, fn func(Repository) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withManagers(tx))
	})
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ParseLogLevel maps LOG_LEVEL values onto GORM's logger levels
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Exists checks if a record matching the conditions exists
func Exists[T any](db *gorm.DB, conditions ...interface{}) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where(conditions[0], conditions[1:]...).Count(&count).Error
	return count > 0, err
}

// translate maps driver and GORM errors onto the package sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
