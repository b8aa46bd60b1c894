package repomanager

import (
	"context"

	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/messages"
)

// RepositoryManager owns a storage backend and hands out repositories.
// WithTx gives fn a repository whose writes commit or roll back together.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Messages() messages.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, repo messages.Repository) error) error
	Close() error
}

// New picks the backend from the DSN: empty means in-memory, anything
// else is treated as a PostgreSQL DSN.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}
	m, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return m, nil
}
