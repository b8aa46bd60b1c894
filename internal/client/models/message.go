// Package models defines client-side data models used by the registry CLI.
package models

import gethcommon "github.com/luxfi/geth/common"

// CachedMessage is a message the owner has decrypted. Content and
// Timestamp are decimal plaintexts.
type CachedMessage struct {
	ID        uint64
	Owner     gethcommon.Address
	Content   string
	Timestamp string
	CreatedAt uint64
}
