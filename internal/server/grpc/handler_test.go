package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/fhe"
	"github.com/dmitrijs2005/fheregistry/internal/logging"
	"github.com/dmitrijs2005/fheregistry/internal/server/events"
	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	registryAddr = gethcommon.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	userA        = gethcommon.HexToAddress("0x000000000000000000000000000000000000000a")
	userB        = gethcommon.HexToAddress("0x000000000000000000000000000000000000000b")
)

// ---- fakes ----

type fakeRegistry struct {
	registryService

	submitCaller gethcommon.Address
	submitID     uint64
	submitErr    error

	ids      []uint64
	count    uint64
	countFor gethcommon.Address
	total    uint64
	md       models.Metadata
	handle   gethcommon.Hash
	owner    bool
	readErr  error
}

func (f *fakeRegistry) Address() gethcommon.Address { return registryAddr }

func (f *fakeRegistry) Submit(ctx context.Context, caller gethcommon.Address, content, timestamp gethcommon.Hash, proof []byte) (uint64, error) {
	f.submitCaller = caller
	return f.submitID, f.submitErr
}

func (f *fakeRegistry) UserMessages(ctx context.Context, caller gethcommon.Address) ([]uint64, error) {
	return f.ids, f.readErr
}

func (f *fakeRegistry) UserMessageCount(ctx context.Context, identity gethcommon.Address) (uint64, error) {
	f.countFor = identity
	return f.count, f.readErr
}

func (f *fakeRegistry) TotalCount(ctx context.Context) (uint64, error) { return f.total, f.readErr }

func (f *fakeRegistry) MessageMetadata(ctx context.Context, id uint64) (models.Metadata, error) {
	return f.md, f.readErr
}

func (f *fakeRegistry) EncryptedContent(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error) {
	return f.handle, f.readErr
}

func (f *fakeRegistry) EncryptedTimestamp(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error) {
	return f.handle, f.readErr
}

func (f *fakeRegistry) IsMessageOwner(ctx context.Context, id uint64, caller gethcommon.Address) (bool, error) {
	return f.owner, f.readErr
}

type fakeCrypto struct {
	in      *fhe.Input
	encErr  error
	value   *uint256.Int
	decErr  error
	encUser gethcommon.Address
}

func (f *fakeCrypto) EncryptInput(ctx context.Context, registry, user gethcommon.Address, values ...*uint256.Int) (*fhe.Input, error) {
	f.encUser = user
	return f.in, f.encErr
}

func (f *fakeCrypto) Decrypt(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (*uint256.Int, error) {
	return f.value, f.decErr
}

// ---- helpers ----

func newServer(r registryService, c cryptoService) *GRPCServer {
	return &GRPCServer{
		address:   "127.0.0.1:0",
		registry:  r,
		crypto:    c,
		feed:      events.NewFeed(4),
		logger:    logging.Nop{},
		jwtSecret: []byte("k"),
	}
}

func as(id gethcommon.Address) context.Context {
	return context.WithValue(context.Background(), IdentityKey, id)
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeRegistry{}, &fakeCrypto{})
	resp, err := s.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}

func TestInfo(t *testing.T) {
	s := newServer(&fakeRegistry{total: 9}, &fakeCrypto{})
	resp, err := s.Info(context.Background(), &api.InfoRequest{})
	require.NoError(t, err)
	assert.Equal(t, &api.InfoResponse{Registry: registryAddr, TotalCount: 9, EventTopic: events.Topic}, resp)
}

func TestSubmit_UsesCallerFromContext(t *testing.T) {
	r := &fakeRegistry{submitID: 4}
	s := newServer(r, &fakeCrypto{})

	resp, err := s.Submit(as(userA), &api.SubmitRequest{Proof: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), resp.MessageID)
	assert.Equal(t, userA, r.submitCaller)
}

func TestSubmit_Errors(t *testing.T) {
	_, err := newServer(&fakeRegistry{}, &fakeCrypto{}).Submit(context.Background(), &api.SubmitRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	r := &fakeRegistry{submitErr: common.ErrProofInvalid}
	_, err = newServer(r, &fakeCrypto{}).Submit(as(userA), &api.SubmitRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGatedReads_MapErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", common.ErrMessageNotFound, codes.NotFound},
		{"not owner", common.ErrNotAuthorized, codes.PermissionDenied},
		{"storage", errors.New("db"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(&fakeRegistry{readErr: tt.err}, &fakeCrypto{})
			_, err := s.GetEncryptedContent(as(userB), &api.MessageRequest{MessageID: 0})
			assert.Equal(t, tt.want, status.Code(err))
			_, err = s.GetEncryptedTimestamp(as(userB), &api.MessageRequest{MessageID: 0})
			assert.Equal(t, tt.want, status.Code(err))
			_, err = s.IsMessageOwner(as(userB), &api.MessageRequest{MessageID: 0})
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestIsMessageOwner_UnknownIDIsFalse(t *testing.T) {
	s := newServer(&fakeRegistry{owner: false}, &fakeCrypto{})
	resp, err := s.IsMessageOwner(as(userA), &api.MessageRequest{MessageID: 99})
	require.NoError(t, err)
	assert.False(t, resp.Owner)
}

func TestGetUserMessageCount_IdentityOrCaller(t *testing.T) {
	r := &fakeRegistry{count: 2}
	s := newServer(r, &fakeCrypto{})

	resp, err := s.GetUserMessageCount(context.Background(), &api.GetUserMessageCountRequest{Identity: &userB})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.Count)
	assert.Equal(t, userB, r.countFor)

	_, err = s.GetUserMessageCount(as(userA), &api.GetUserMessageCountRequest{})
	require.NoError(t, err)
	assert.Equal(t, userA, r.countFor)

	_, err = s.GetUserMessageCount(context.Background(), &api.GetUserMessageCountRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetMessageMetadata(t *testing.T) {
	md := models.Metadata{Sender: userA, CreatedAt: 10, Exists: true}
	s := newServer(&fakeRegistry{md: md}, &fakeCrypto{})

	resp, err := s.GetMessageMetadata(context.Background(), &api.MessageRequest{MessageID: 1})
	require.NoError(t, err)
	assert.Equal(t, &api.MetadataResponse{Sender: userA, CreatedAt: 10, Exists: true}, resp)
}

func TestEncrypt(t *testing.T) {
	c := &fakeCrypto{in: &fhe.Input{Handles: []gethcommon.Hash{{1}, {2}}, Proof: []byte("p")}}
	s := newServer(&fakeRegistry{}, c)

	resp, err := s.Encrypt(as(userA), &api.EncryptRequest{Content: "42", Timestamp: "1700000000"})
	require.NoError(t, err)
	assert.Equal(t, gethcommon.Hash{1}, resp.Content)
	assert.Equal(t, gethcommon.Hash{2}, resp.Timestamp)
	assert.Equal(t, userA, c.encUser)

	_, err = s.Encrypt(as(userA), &api.EncryptRequest{Content: "forty-two", Timestamp: "1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDecrypt(t *testing.T) {
	s := newServer(&fakeRegistry{}, &fakeCrypto{value: uint256.NewInt(42)})
	resp, err := s.Decrypt(as(userA), &api.DecryptRequest{})
	require.NoError(t, err)
	assert.Equal(t, "42", resp.Value)

	s = newServer(&fakeRegistry{}, &fakeCrypto{decErr: common.ErrAccessDenied})
	_, err = s.Decrypt(as(userB), &api.DecryptRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
