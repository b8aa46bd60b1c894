// Package fhe is an in-process stand-in for the external FHE network: it
// seals plaintext inputs, issues ciphertext handles with input proofs bound
// to a (registry, user) pair, imports proven handles, keeps the decryption
// ACL and performs user decryption for identities holding a grant.
//
// The scheme is AES-GCM, not homomorphic. Only the handle/proof/ACL
// contract matters to the registry.
package fhe

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/cryptox"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
)

// Keys is the service key material: Cipher seals plaintexts, MAC
// authenticates input proofs.
type Keys struct {
	Cipher []byte
	MAC    []byte
}

// DeriveKeys stretches secret with argon2id into both keys.
func DeriveKeys(secret, salt []byte) Keys {
	k := cryptox.DeriveKey(secret, salt, 64)
	return Keys{Cipher: k[:32], MAC: k[32:]}
}

// Input is what a client submits to the registry: one external handle per
// value plus a proof covering all of them.
type Input struct {
	Handles []gethcommon.Hash
	Proof   []byte
}

type Service struct {
	sealer *cryptox.Sealer
	macKey []byte
	store  Store
}

func NewService(keys Keys, store Store) (*Service, error) {
	sealer, err := cryptox.NewSealer(keys.Cipher)
	if err != nil {
		return nil, err
	}
	if len(keys.MAC) == 0 {
		return nil, errors.New("empty mac key")
	}
	return &Service{sealer: sealer, macKey: append([]byte(nil), keys.MAC...), store: store}, nil
}

func keccak256(parts ...[]byte) gethcommon.Hash {
	return gethcommon.BytesToHash(cryptox.Keccak256(parts...))
}

var internalDomain = []byte("fheregistry/internal-handle")

// InternalHandle is the handle a registry holds after importing external.
func InternalHandle(registry gethcommon.Address, external gethcommon.Hash) gethcommon.Hash {
	return keccak256(internalDomain, registry.Bytes(), external.Bytes())
}

// EncryptInput seals values for use by user at registry. The returned
// proof only imports at that registry for that caller.
func (s *Service) EncryptInput(ctx context.Context, registry, user gethcommon.Address, values ...*uint256.Int) (*Input, error) {
	if len(values) == 0 || len(values) > maxProofHandles {
		return nil, fmt.Errorf("can encrypt 1..%d values, got %d", maxProofHandles, len(values))
	}

	handles := make([]gethcommon.Hash, 0, len(values))
	for _, v := range values {
		if v == nil {
			return nil, errors.New("nil value")
		}
		ct := s.seal(v)
		h := keccak256(ct)
		if err := s.store.PutCiphertext(ctx, h, ct); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	proof, err := encodeProof(s.signProof(registry, user, handles))
	if err != nil {
		return nil, err
	}
	return &Input{Handles: handles, Proof: proof}, nil
}

// ImportCiphertext verifies proof for (registry, caller), checks external
// is covered by it and returns the registry-scoped internal handle.
// Any verification failure wraps common.ErrProofInvalid.
func (s *Service) ImportCiphertext(ctx context.Context, external gethcommon.Hash, proof []byte, registry, caller gethcommon.Address) (gethcommon.Hash, error) {
	p, err := decodeProof(proof)
	if err != nil {
		return gethcommon.Hash{}, fmt.Errorf("%w: %v", common.ErrProofInvalid, err)
	}
	if err := s.verifyProof(p, registry, caller, external); err != nil {
		return gethcommon.Hash{}, err
	}

	ct, err := s.store.GetCiphertext(ctx, external)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return gethcommon.Hash{}, fmt.Errorf("%w: unknown handle %s", common.ErrProofInvalid, external.Hex())
		}
		return gethcommon.Hash{}, err
	}

	internal := InternalHandle(registry, external)
	if err := s.store.PutCiphertext(ctx, internal, ct); err != nil {
		return gethcommon.Hash{}, err
	}
	return internal, nil
}

// GrantAccess allows identity to decrypt handle from now on.
func (s *Service) GrantAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	if _, err := s.store.GetCiphertext(ctx, handle); err != nil {
		return fmt.Errorf("grant on %s: %w", handle.Hex(), err)
	}
	return s.store.Grant(ctx, handle, identity)
}

// RevokeAccess withdraws a grant made by GrantAccess.
func (s *Service) RevokeAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error {
	return s.store.Revoke(ctx, handle, identity)
}

func (s *Service) IsAllowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error) {
	return s.store.Allowed(ctx, handle, identity)
}

// Decrypt returns the plaintext behind handle if identity holds a grant,
// common.ErrAccessDenied otherwise.
func (s *Service) Decrypt(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (*uint256.Int, error) {
	ok, err := s.store.Allowed(ctx, handle, identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrAccessDenied
	}

	ct, err := s.store.GetCiphertext(ctx, handle)
	if err != nil {
		return nil, err
	}
	return s.open(ct)
}

func (s *Service) seal(v *uint256.Int) []byte {
	pt := v.Bytes32()
	return s.sealer.Seal(pt[:])
}

func (s *Service) open(ct []byte) (*uint256.Int, error) {
	pt, err := s.sealer.Open(ct)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pt)
	return new(uint256.Int).SetBytes(pt), nil
}
