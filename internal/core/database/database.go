// Package database opens the gorm handle and the sqlx reporting handle over one pool.
package database

import (
	"fmt"
	"time"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/datamodel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	pgxDriver    = "pgx"
	sqliteDriver = "sqlite3"
)

type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

func gormConfig(level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Open connects according to cfg.Driver and verifies the connection.
func Open(cfg internal.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case internal.DatabaseDriverSQLite:
		return openSQLite(cfg.Source, cfg.AutoMigrate, gormlogger.Warn)
	default:
		return openPostgres(cfg)
	}
}

func openPostgres(cfg internal.DatabaseConfig) (*DB, error) {
	sqlxDB, err := sqlx.Connect(pgxDriver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlxDB.Ping(); err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), gormConfig(gormlogger.Warn))
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DB{Gorm: gormDB, SQLX: sqlxDB}, nil
}

func openSQLite(dsn string, migrate bool, level gormlogger.LogLevel) (*DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(dsn), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps an in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if migrate {
		if err := gormDB.AutoMigrate(datamodel.Models()...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	return &DB{Gorm: gormDB, SQLX: sqlx.NewDb(sqlDB, sqliteDriver)}, nil
}

// OpenInMemory returns a migrated, private sqlite database. Used by the test suites.
func OpenInMemory() (*DB, error) {
	return openSQLite(":memory:", true, gormlogger.Silent)
}
