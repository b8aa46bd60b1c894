// Package fhetest provides a trivial FHE collaborator for tests.
package fhetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
)

type Grant struct {
	Handle   gethcommon.Hash
	Identity gethcommon.Address
}

// Stub accepts any non-empty proof and maps an external handle to itself.
// Plaintexts wrapped with Wrap can be read back with Plain, which is the
// mock submission path: no proof, no encryption.
type Stub struct {
	mu     sync.Mutex
	Reject bool
	// FailGrant, when set, is returned by GrantAccess.
	FailGrant error
	// FailGrantAfter lets that many grants succeed before FailGrant applies.
	FailGrantAfter int
	Imports        int
	Grants         []Grant
	Revoked        []Grant
	plain          map[gethcommon.Hash]*uint256.Int
}

func NewStub() *Stub {
	return &Stub{plain: make(map[gethcommon.Hash]*uint256.Int)}
}

func (s *Stub) ImportCiphertext(ctx context.Context, external gethcommon.Hash, proof []byte, registry, caller gethcommon.Address) (gethcommon.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Reject || len(proof) == 0 {
		return gethcommon.Hash{}, fmt.Errorf("%w: stub rejected", common.ErrProofInvalid)
	}
	s.Imports++
	return external, nil
}

func (s *Stub) GrantAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGrant != nil {
		if s.FailGrantAfter == 0 {
			return s.FailGrant
		}
		s.FailGrantAfter--
	}
	s.Grants = append(s.Grants, Grant{Handle: handle, Identity: identity})
	return nil
}

func (s *Stub) RevokeAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := Grant{Handle: handle, Identity: identity}
	kept := s.Grants[:0]
	for _, have := range s.Grants {
		if have != g {
			kept = append(kept, have)
		}
	}
	s.Grants = kept
	s.Revoked = append(s.Revoked, g)
	return nil
}

func (s *Stub) IsAllowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error) {
	return s.Granted(handle, identity), nil
}

// Granted reports whether identity was granted handle.
func (s *Stub) Granted(handle gethcommon.Hash, identity gethcommon.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.Grants {
		if g.Handle == handle && g.Identity == identity {
			return true
		}
	}
	return false
}

// Wrap turns a plaintext into a handle without encrypting it.
func (s *Stub) Wrap(v uint64) gethcommon.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := gethcommon.Hash(uint256.NewInt(uint64(len(s.plain) + 1)).Bytes32())
	s.plain[h] = uint256.NewInt(v)
	return h
}

// Plain returns the value behind a handle produced by Wrap.
func (s *Stub) Plain(h gethcommon.Hash) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.plain[h]
	if !ok {
		return 0, false
	}
	return v.Uint64(), true
}

// Proof is any non-empty byte string the stub accepts.
var Proof = []byte{0x01}
