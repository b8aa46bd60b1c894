package api

import (
	gethcommon "github.com/luxfi/geth/common"
)

// Plaintext values travel as decimal strings.

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type InfoRequest struct{}

type InfoResponse struct {
	Registry   gethcommon.Address `json:"registry"`
	TotalCount uint64             `json:"total_count"`
	EventTopic gethcommon.Hash    `json:"event_topic"`
}

type EncryptRequest struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type EncryptResponse struct {
	Content   gethcommon.Hash `json:"content"`
	Timestamp gethcommon.Hash `json:"timestamp"`
	Proof     []byte          `json:"proof"`
}

type SubmitRequest struct {
	Content   gethcommon.Hash `json:"content"`
	Timestamp gethcommon.Hash `json:"timestamp"`
	Proof     []byte          `json:"proof"`
}

type SubmitResponse struct {
	MessageID uint64 `json:"message_id"`
}

type GetUserMessagesRequest struct{}

type GetUserMessagesResponse struct {
	MessageIDs []uint64 `json:"message_ids"`
}

// GetUserMessageCountRequest counts the caller's messages when Identity
// is nil.
type GetUserMessageCountRequest struct {
	Identity *gethcommon.Address `json:"identity,omitempty"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type GetTotalCountRequest struct{}

type MessageRequest struct {
	MessageID uint64 `json:"message_id"`
}

type MetadataResponse struct {
	Sender    gethcommon.Address `json:"sender"`
	CreatedAt uint64             `json:"created_at"`
	Exists    bool               `json:"exists"`
}

type HandleResponse struct {
	Handle gethcommon.Hash `json:"handle"`
}

type OwnerResponse struct {
	Owner bool `json:"owner"`
}

type DecryptRequest struct {
	Handle gethcommon.Hash `json:"handle"`
}

type DecryptResponse struct {
	Value string `json:"value"`
}

// WatchRequest optionally narrows the stream to one sender.
type WatchRequest struct {
	Sender *gethcommon.Address `json:"sender,omitempty"`
}

type MessageEvent struct {
	MessageID uint64             `json:"message_id"`
	Sender    gethcommon.Address `json:"sender"`
	CreatedAt uint64             `json:"created_at"`
}
