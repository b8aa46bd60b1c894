// Package events carries registry notifications: the MessageCreated record,
// its canonical encoding, and sinks that deliver it to logs and watchers.
package events

import (
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/cryptox"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
)

const messageCreatedSignature = "MessageCreated(uint256,address,uint256)"

// Topic identifies MessageCreated records in logs.
var Topic = topicOf(messageCreatedSignature)

func topicOf(sig string) gethcommon.Hash {
	return gethcommon.BytesToHash(cryptox.Keccak256([]byte(sig)))
}

// MessageCreated is emitted once per stored message, after commit.
type MessageCreated struct {
	MessageID uint64             `json:"message_id"`
	Sender    gethcommon.Address `json:"sender"`
	CreatedAt uint64             `json:"created_at"`
}

func (e MessageCreated) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&e)
}

func Decode(b []byte) (MessageCreated, error) {
	var e MessageCreated
	if err := rlp.DecodeBytes(b, &e); err != nil {
		return MessageCreated{}, fmt.Errorf("decode MessageCreated: %w", err)
	}
	return e, nil
}
