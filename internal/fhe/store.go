package fhe

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	gethcommon "github.com/luxfi/geth/common"
)

// Store keeps ciphertexts by handle and the decryption ACL.
type Store interface {
	PutCiphertext(ctx context.Context, handle gethcommon.Hash, ciphertext []byte) error
	// GetCiphertext returns common.ErrorNotFound for unknown handles.
	GetCiphertext(ctx context.Context, handle gethcommon.Hash) ([]byte, error)
	Grant(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error
	// Revoke removes a grant. Revoking an absent grant is a no-op.
	Revoke(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error
	Allowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu          sync.RWMutex
	ciphertexts map[gethcommon.Hash][]byte
	acl         map[gethcommon.Hash]map[gethcommon.Address]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ciphertexts: make(map[gethcommon.Hash][]byte),
		acl:         make(map[gethcommon.Hash]map[gethcommon.Address]struct{}),
	}
}

func (s *MemoryStore) PutCiphertext(ctx context.Context, handle gethcommon.Hash, ciphertext []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ciphertexts[handle] = append([]byte(nil), ciphertext...)
	return nil
}

func (s *MemoryStore) GetCiphertext(ctx context.Context, handle gethcommon.Hash) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.ciphertexts[handle]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), ct...), nil
}

func (s *MemoryStore) Grant(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	grants, ok := s.acl[handle]
	if !ok {
		grants = make(map[gethcommon.Address]struct{})
		s.acl[handle] = grants
	}
	grants[identity] = struct{}{}
	return nil
}

func (s *MemoryStore) Revoke(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	grants, ok := s.acl[handle]
	if !ok {
		return nil
	}
	delete(grants, identity)
	if len(grants) == 0 {
		delete(s.acl, handle)
	}
	return nil
}

func (s *MemoryStore) Allowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.acl[handle][identity]
	return ok, nil
}
