package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultConnectTimeout = 3 * time.Second
	MemoryPath            = ":memory:"
)

// Store is the selected backend: one pool for the life of the process, one dialect picked at open time.
type Store struct {
	DB      *gorm.DB
	Dialect Dialect
}

type Options struct {
	// PrimaryDSN is the PostgreSQL DSN; empty skips straight to the embedded file.
	PrimaryDSN     string
	FallbackPath   string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func gormConfig(prepare bool) *gorm.Config {
	return &gorm.Config{
		PrepareStmt:          prepare,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
		NowFunc:              func() time.Time { return time.Now().UTC() },
	}
}

// Open tries the primary backend and falls back to the embedded store on any connection error.
// The primary failure is only logged.
func Open(ctx context.Context, opts Options) (*Store, error) {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	if opts.PrimaryDSN != "" {
		st, err := OpenPostgres(ctx, opts.PrimaryDSN, opts.ConnectTimeout)
		if err == nil {
			l.Info("storage_backend_selected", "backend", BackendPostgres)
			return st, nil
		}
		l.Warn("primary_backend_unavailable", "backend", BackendPostgres, "fallback", opts.FallbackPath, "error", err)
	}

	st, err := OpenSQLite(ctx, opts.FallbackPath)
	if err != nil {
		return nil, err
	}
	l.Info("storage_backend_selected", "backend", BackendSQLite, "path", opts.FallbackPath)
	return st, nil
}

func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	gdb, err := gorm.Open(postgres.Open(dsn), gormConfig(true))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return newStore(gdb)
}

// OpenSQLite opens (creating if needed) the embedded database file. SQLite has a single writer,
// so the pool is one connection wide; that also keeps ":memory:" a single shared database.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("SQLITE_PATH is empty")
	}

	gdb, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(false))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return newStore(gdb)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func newStore(gdb *gorm.DB) (*Store, error) {
	d, err := DialectFor(gdb)
	if err != nil {
		return nil, err
	}
	return &Store{DB: gdb, Dialect: d}, nil
}

func (s *Store) Backend() string { return s.Dialect.Name() }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
