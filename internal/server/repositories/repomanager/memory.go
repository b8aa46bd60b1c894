package repomanager

import (
	"context"

	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/messages"
)

// MemoryRepositoryManager keeps everything in process. WithTx does not
// provide rollback; the registry only mutates in the final Insert.
type MemoryRepositoryManager struct {
	messages *messages.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{messages: messages.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Messages() messages.Repository {
	return m.messages
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo messages.Repository) error) error {
	return fn(ctx, m.messages)
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
