// Package messages stores registry messages. Implementations keep the
// message table and the per-sender index in step; callers are expected to
// pair NextID and Insert inside one transaction.
package messages

import (
	"context"

	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	gethcommon "github.com/luxfi/geth/common"
)

type Repository interface {
	// NextID reserves the id the next Insert must use (the current count).
	NextID(ctx context.Context) (uint64, error)
	Insert(ctx context.Context, m *models.Message) error
	// GetByID returns common.ErrorNotFound for ids never assigned.
	GetByID(ctx context.Context, id uint64) (*models.Message, error)
	// SelectIDsBySender lists ids in submission order; never nil.
	SelectIDsBySender(ctx context.Context, sender gethcommon.Address) ([]uint64, error)
	CountBySender(ctx context.Context, sender gethcommon.Address) (uint64, error)
	Count(ctx context.Context) (uint64, error)
}
