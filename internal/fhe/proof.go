package fhe

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
)

const maxProofHandles = 16

// inputProof is RLP encoded on the wire.
type inputProof struct {
	Registry gethcommon.Address
	User     gethcommon.Address
	Handles  []gethcommon.Hash
	MAC      []byte
}

func (s *Service) mac(registry, user gethcommon.Address, handles []gethcommon.Hash) []byte {
	m := hmac.New(sha256.New, s.macKey)
	m.Write(registry.Bytes())
	m.Write(user.Bytes())
	for _, h := range handles {
		m.Write(h.Bytes())
	}
	return m.Sum(nil)
}

func (s *Service) signProof(registry, user gethcommon.Address, handles []gethcommon.Hash) *inputProof {
	return &inputProof{Registry: registry, User: user, Handles: handles, MAC: s.mac(registry, user, handles)}
}

func (s *Service) verifyProof(p *inputProof, registry, caller gethcommon.Address, external gethcommon.Hash) error {
	if p.Registry != registry {
		return fmt.Errorf("%w: bound to registry %s", common.ErrProofInvalid, p.Registry.Hex())
	}
	if p.User != caller {
		return fmt.Errorf("%w: bound to user %s", common.ErrProofInvalid, p.User.Hex())
	}
	if !hmac.Equal(p.MAC, s.mac(p.Registry, p.User, p.Handles)) {
		return fmt.Errorf("%w: bad signature", common.ErrProofInvalid)
	}
	for _, h := range p.Handles {
		if h == external {
			return nil
		}
	}
	return fmt.Errorf("%w: handle %s not covered", common.ErrProofInvalid, external.Hex())
}

func encodeProof(p *inputProof) ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

func decodeProof(b []byte) (*inputProof, error) {
	if len(b) == 0 {
		return nil, errors.New("empty proof")
	}
	p := &inputProof{}
	if err := rlp.DecodeBytes(b, p); err != nil {
		return nil, fmt.Errorf("malformed proof: %w", err)
	}
	if len(p.Handles) == 0 || len(p.Handles) > maxProofHandles {
		return nil, fmt.Errorf("proof covers %d handles", len(p.Handles))
	}
	return p, nil
}
