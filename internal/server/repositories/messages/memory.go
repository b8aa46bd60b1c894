package messages

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	gethcommon "github.com/luxfi/geth/common"
)

// MemoryRepository is an arena: messages live in a slice indexed by id and
// a side map keeps each sender's ids in submission order.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages []models.Message
	bySender map[gethcommon.Address][]uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bySender: make(map[gethcommon.Address][]uint64)}
}

// NextID does not reserve anything; the caller's write serialization keeps
// it valid until the matching Insert.
func (r *MemoryRepository) NextID(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.messages)), nil
}

func (r *MemoryRepository) Insert(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if next := uint64(len(r.messages)); m.ID != next {
		return fmt.Errorf("out of order insert: id %d, expected %d", m.ID, next)
	}
	r.messages = append(r.messages, *m)
	r.bySender[m.Sender] = append(r.bySender[m.Sender], m.ID)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uint64) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id >= uint64(len(r.messages)) {
		return nil, common.ErrorNotFound
	}
	m := r.messages[id]
	return &m, nil
}

func (r *MemoryRepository) SelectIDsBySender(ctx context.Context, sender gethcommon.Address) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySender[sender]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out, nil
}

func (r *MemoryRepository) CountBySender(ctx context.Context, sender gethcommon.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.bySender[sender])), nil
}

func (r *MemoryRepository) Count(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.messages)), nil
}
