// Package database is the relational store for users, posts, comments and
// sessions.
package database

import (
	"context"
	"log"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrTitleTaken = errors.New("a post with this title already exists")
)

type Store struct {
	db *gorm.DB

	// FirstUserAdmin grants the admin role to the first account ever created.
	FirstUserAdmin bool
}

type Options struct {
	Debug          bool
	FirstUserAdmin bool
}

// Open connects to the database. driver is one of sqlite, mysql or postgres.
func Open(driver, dsn string, opts Options) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if opts.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "get sqlite handle")
		}
		// one connection keeps the per-connection pragmas in effect and
		// serializes writers
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 3000",
		} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, errors.Wrap(err, pragma)
			}
		}
	}

	return &Store{db: db, FirstUserAdmin: opts.FirstUserAdmin}, nil
}

// Migrate creates the schema when it is missing.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&User{}, &Post{}, &Comment{}, &Session{}); err != nil {
		return errors.Wrap(err, "migrate schema")
	}
	log.Printf("database schema ready")
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueErr reports unique constraint violations, either translated by
// gorm or as raw driver messages.
func isUniqueErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key value") // postgres
}
