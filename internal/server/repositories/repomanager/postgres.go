// Package repomanager wires repository implementations to a storage
// backend: PostgreSQL (pgx + goose migrations) or process memory.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/dbx"
	"github.com/dmitrijs2005/fheregistry/internal/server/migrations"
	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/messages"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// seams for tests
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// NewPostgresRepositoryManager wraps an already opened database.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// OpenPostgres opens the pgx driver for dsn and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Messages() messages.Repository {
	return messages.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo messages.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, messages.NewPostgresRepository(tx))
	})
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
