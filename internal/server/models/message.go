// Package models defines server-side data models persisted by the registry.
package models

import (
	gethcommon "github.com/luxfi/geth/common"
)

// Message is a stored registry record. It is immutable once created and is
// never deleted, so a *Message always exists.
type Message struct {
	// ID is assigned in submission order starting at 0.
	ID uint64
	// Sender is the identity that submitted the message.
	Sender gethcommon.Address
	// EncryptedContent and EncryptedTimestamp are opaque handles owned by
	// the FHE layer.
	EncryptedContent   gethcommon.Hash
	EncryptedTimestamp gethcommon.Hash
	// CreatedAt is the submission time in unix seconds.
	CreatedAt uint64
}

// Metadata is the public view of a message. For ids that were never
// assigned every field holds its zero value.
type Metadata struct {
	Sender    gethcommon.Address
	CreatedAt uint64
	Exists    bool
}

// Metadata returns the public view of m.
func (m *Message) Metadata() Metadata {
	return Metadata{Sender: m.Sender, CreatedAt: m.CreatedAt, Exists: true}
}

// OwnedBy reports whether identity submitted m.
func (m *Message) OwnedBy(identity gethcommon.Address) bool {
	return m.Sender == identity
}
