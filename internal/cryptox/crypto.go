// Package cryptox holds the symmetric primitives behind the local FHE
// service: argon2id key stretching, AES-GCM sealing with a prepended nonce
// and legacy Keccak-256 hashing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/sha3"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches secret with argon2id into size bytes.
func DeriveKey(secret, salt []byte, size uint32) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, size)
}

// Keccak256 hashes the concatenation of parts.
func Keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Sealer is AES-GCM where every ciphertext carries its own random nonce
// as a prefix.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer accepts 16, 24 or 32 byte keys.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(plaintext []byte) []byte {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	return s.aead.Seal(nonce, nonce, plaintext, nil)
}

func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	pt, err := s.aead.Open(nil, ciphertext[:n], ciphertext[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return pt, nil
}
