package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/entities"
	"github.com/mrlokans/influence/internal/logging"
)

// ErrNotFound is returned by lookups, updates and deletes that matched nothing.
var ErrNotFound = entitystore.ErrNotFound

// IsConstraintViolation reports whether err was caused by the database
// rejecting the data (length, uniqueness, NOT NULL, foreign key).
func IsConstraintViolation(err error) bool {
	return entitystore.IsConstraintViolation(err)
}

// Models lists every table owned by the application, parents before children.
func Models() []any {
	return []any{
		&entities.Company{},
		&entities.CompanyDomain{},
		&entities.Influencer{},
		&entities.InfluencerSubject{},
		&entities.Announcement{},
		&entities.AnnouncementSubject{},
		&entities.Application{},
	}
}

// childValueColumns are the dependent string columns whose size must be
// enforced. SQLite ignores VARCHAR sizes, so it gets triggers instead.
var childValueColumns = []ChildTable{CompanyDomains, InfluencerSubjects, AnnouncementSubjects}

type Database struct {
	DB      *gorm.DB
	dialect entitystore.Dialect
}

// NewDatabase opens (and migrates) a SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(config.Database{Driver: "sqlite", DSN: dbPath})
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database) (*Database, error) {
	dialect, err := entitystore.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case entitystore.SQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case entitystore.Postgres:
		dialector = postgres.Open(cfg.DSN)
	case entitystore.SQLServer:
		dialector = sqlserver.Open(cfg.DSN)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	gormLogger := logger.New(
		logging.Printf{Logger: zlog.Logger.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, dialect: dialect}

	if dialect == entitystore.SQLite && isSQLiteMemory(cfg.DSN) {
		// Every connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}

	log.Printf("Database initialized successfully (%s)", dialect.Name())

	return database, nil
}

// Migrate creates or updates every table and the SQLite length triggers.
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if d.dialect == entitystore.SQLite {
		if err := d.createLengthTriggers(); err != nil {
			return fmt.Errorf("failed to create length triggers: %w", err)
		}
	}
	return nil
}

func (d *Database) createLengthTriggers() error {
	for _, c := range childValueColumns {
		for _, event := range []string{"INSERT", "UPDATE"} {
			stmt := fmt.Sprintf(
				`CREATE TRIGGER IF NOT EXISTS trg_%[1]s_%[2]s_length_%[3]s
				BEFORE %[4]s ON %[1]s
				WHEN length(NEW.%[2]s) > %[5]d
				BEGIN
					SELECT RAISE(ABORT, '%[1]s.%[2]s exceeds %[5]d characters');
				END`,
				c.Table, c.Column, strings.ToLower(event), event, entities.MaxChildValueLength)
			if err := d.DB.Exec(stmt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQL exposes the pooled connection used by the entity stores.
func (d *Database) SQL() *sql.DB {
	sqlDB, err := d.DB.DB()
	if err != nil {
		// gorm only fails here when the pool is not a *sql.DB, which none
		// of the supported dialectors do.
		panic(fmt.Sprintf("database: no sql.DB behind gorm: %v", err))
	}
	return sqlDB
}

func (d *Database) Dialect() entitystore.Dialect {
	return d.dialect
}

func (d *Database) Ping(ctx context.Context) error {
	return d.SQL().PingContext(ctx)
}

// Transaction runs fn inside a gorm transaction bound to ctx.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// sqliteDSN adds a busy timeout and BEGIN IMMEDIATE transactions unless the
// DSN already sets them.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = config.DefaultDatabasePath
	}
	params := []string{}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if !strings.Contains(dsn, "_txlock") && !isSQLiteMemory(dsn) {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isSQLiteMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
