package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// registryAPI is implemented by *api.MessageRegistryClient.
type registryAPI interface {
	Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error)
	Info(ctx context.Context, in *api.InfoRequest, opts ...grpc.CallOption) (*api.InfoResponse, error)
	Encrypt(ctx context.Context, in *api.EncryptRequest, opts ...grpc.CallOption) (*api.EncryptResponse, error)
	Submit(ctx context.Context, in *api.SubmitRequest, opts ...grpc.CallOption) (*api.SubmitResponse, error)
	GetUserMessages(ctx context.Context, in *api.GetUserMessagesRequest, opts ...grpc.CallOption) (*api.GetUserMessagesResponse, error)
	GetUserMessageCount(ctx context.Context, in *api.GetUserMessageCountRequest, opts ...grpc.CallOption) (*api.CountResponse, error)
	GetMessageMetadata(ctx context.Context, in *api.MessageRequest, opts ...grpc.CallOption) (*api.MetadataResponse, error)
	GetEncryptedContent(ctx context.Context, in *api.MessageRequest, opts ...grpc.CallOption) (*api.HandleResponse, error)
	GetEncryptedTimestamp(ctx context.Context, in *api.MessageRequest, opts ...grpc.CallOption) (*api.HandleResponse, error)
	IsMessageOwner(ctx context.Context, in *api.MessageRequest, opts ...grpc.CallOption) (*api.OwnerResponse, error)
	GetTotalCount(ctx context.Context, in *api.GetTotalCountRequest, opts ...grpc.CallOption) (*api.CountResponse, error)
	Decrypt(ctx context.Context, in *api.DecryptRequest, opts ...grpc.CallOption) (*api.DecryptResponse, error)
	WatchMessages(ctx context.Context, in *api.WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[api.MessageEvent], error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      registryAPI
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.accessToken), desc, cc, method, opts...)
}

// NewGRPCClient connects to endpointURL. An empty accessToken limits the
// client to the public methods.
func NewGRPCClient(endpointURL, accessToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	conn, err := grpc.NewClient(c.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewMessageRegistryClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrMessageNotFound, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrNotAuthorized, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Info(ctx context.Context) (*api.InfoResponse, error) {
	resp, err := s.client.Info(ctx, &api.InfoRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Encrypt asks the server-side FHE service to seal both values for the
// caller. The result is only valid for Submit by the same caller.
func (s *GRPCClient) Encrypt(ctx context.Context, content, timestamp *uint256.Int) (*api.EncryptResponse, error) {
	resp, err := s.client.Encrypt(ctx, &api.EncryptRequest{Content: content.Dec(), Timestamp: timestamp.Dec()})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Submit returns common.ErrProofInvalid when the server rejects the proof.
func (s *GRPCClient) Submit(ctx context.Context, content, timestamp gethcommon.Hash, proof []byte) (uint64, error) {
	resp, err := s.client.Submit(ctx, &api.SubmitRequest{Content: content, Timestamp: timestamp, Proof: proof})
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return 0, fmt.Errorf("%w: %s", common.ErrProofInvalid, status.Convert(err).Message())
		}
		return 0, s.mapError(err)
	}
	return resp.MessageID, nil
}

func (s *GRPCClient) UserMessages(ctx context.Context) ([]uint64, error) {
	resp, err := s.client.GetUserMessages(ctx, &api.GetUserMessagesRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	if resp.MessageIDs == nil {
		return []uint64{}, nil
	}
	return resp.MessageIDs, nil
}

// UserMessageCount counts the messages of identity, or of the caller when
// identity is nil.
func (s *GRPCClient) UserMessageCount(ctx context.Context, identity *gethcommon.Address) (uint64, error) {
	resp, err := s.client.GetUserMessageCount(ctx, &api.GetUserMessageCountRequest{Identity: identity})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Count, nil
}

func (s *GRPCClient) TotalCount(ctx context.Context) (uint64, error) {
	resp, err := s.client.GetTotalCount(ctx, &api.GetTotalCountRequest{})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Count, nil
}

func (s *GRPCClient) MessageMetadata(ctx context.Context, id uint64) (*api.MetadataResponse, error) {
	resp, err := s.client.GetMessageMetadata(ctx, &api.MessageRequest{MessageID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) EncryptedContent(ctx context.Context, id uint64) (gethcommon.Hash, error) {
	resp, err := s.client.GetEncryptedContent(ctx, &api.MessageRequest{MessageID: id})
	if err != nil {
		return gethcommon.Hash{}, s.mapError(err)
	}
	return resp.Handle, nil
}

func (s *GRPCClient) EncryptedTimestamp(ctx context.Context, id uint64) (gethcommon.Hash, error) {
	resp, err := s.client.GetEncryptedTimestamp(ctx, &api.MessageRequest{MessageID: id})
	if err != nil {
		return gethcommon.Hash{}, s.mapError(err)
	}
	return resp.Handle, nil
}

func (s *GRPCClient) IsMessageOwner(ctx context.Context, id uint64) (bool, error) {
	resp, err := s.client.IsMessageOwner(ctx, &api.MessageRequest{MessageID: id})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Owner, nil
}

// Decrypt returns common.ErrAccessDenied when the caller holds no grant.
func (s *GRPCClient) Decrypt(ctx context.Context, handle gethcommon.Hash) (*uint256.Int, error) {
	resp, err := s.client.Decrypt(ctx, &api.DecryptRequest{Handle: handle})
	if err != nil {
		if status.Code(err) == codes.PermissionDenied {
			return nil, fmt.Errorf("%w: %s", common.ErrAccessDenied, status.Convert(err).Message())
		}
		return nil, s.mapError(err)
	}
	v, err := uint256.FromDecimal(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("bad plaintext %q: %w", resp.Value, err)
	}
	return v, nil
}

// Watch calls fn for every MessageCreated event until ctx is done, the
// server closes the stream or fn fails.
func (s *GRPCClient) Watch(ctx context.Context, sender *gethcommon.Address, fn func(*api.MessageEvent) error) error {
	stream, err := s.client.WatchMessages(ctx, &api.WatchRequest{Sender: sender})
	if err != nil {
		return s.mapError(err)
	}
	for {
		e, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return s.mapError(err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
