package grpc

import (
	"context"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/server/events"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) caller(ctx context.Context) (gethcommon.Address, error) {
	id, ok := identityFromContext(ctx)
	if !ok {
		return gethcommon.Address{}, status.Error(codes.Unauthenticated, "missing identity")
	}
	return id, nil
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.log(ctx).Error(ctx, op+" failed", "error", err)
	} else {
		s.log(ctx).Info(ctx, op+" rejected", "error", err)
	}
	return st
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Info(ctx context.Context, req *api.InfoRequest) (*api.InfoResponse, error) {
	total, err := s.registry.TotalCount(ctx)
	if err != nil {
		return nil, s.fail(ctx, "info", err)
	}
	return &api.InfoResponse{Registry: s.registry.Address(), TotalCount: total, EventTopic: events.Topic}, nil
}

func parseValue(name, v string) (*uint256.Int, error) {
	x, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return x, nil
}

func (s *GRPCServer) Encrypt(ctx context.Context, req *api.EncryptRequest) (*api.EncryptResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	content, err := parseValue("content", req.Content)
	if err != nil {
		return nil, err
	}
	ts, err := parseValue("timestamp", req.Timestamp)
	if err != nil {
		return nil, err
	}

	in, err := s.crypto.EncryptInput(ctx, s.registry.Address(), caller, content, ts)
	if err != nil {
		return nil, s.fail(ctx, "encrypt", err)
	}
	return &api.EncryptResponse{Content: in.Handles[0], Timestamp: in.Handles[1], Proof: in.Proof}, nil
}

func (s *GRPCServer) Submit(ctx context.Context, req *api.SubmitRequest) (*api.SubmitResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.registry.Submit(ctx, caller, req.Content, req.Timestamp, req.Proof)
	if err != nil {
		return nil, s.fail(ctx, "submit", err)
	}

	s.log(ctx).Info(ctx, "Submitted", "id", id, "sender", caller.Hex())
	return &api.SubmitResponse{MessageID: id}, nil
}

func (s *GRPCServer) GetUserMessages(ctx context.Context, req *api.GetUserMessagesRequest) (*api.GetUserMessagesResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.registry.UserMessages(ctx, caller)
	if err != nil {
		return nil, s.fail(ctx, "user messages", err)
	}
	return &api.GetUserMessagesResponse{MessageIDs: ids}, nil
}

func (s *GRPCServer) GetUserMessageCount(ctx context.Context, req *api.GetUserMessageCountRequest) (*api.CountResponse, error) {
	var identity gethcommon.Address
	if req.Identity != nil {
		identity = *req.Identity
	} else {
		caller, ok := identityFromContext(ctx)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "identity required")
		}
		identity = caller
	}

	n, err := s.registry.UserMessageCount(ctx, identity)
	if err != nil {
		return nil, s.fail(ctx, "user message count", err)
	}
	return &api.CountResponse{Count: n}, nil
}

func (s *GRPCServer) GetTotalCount(ctx context.Context, req *api.GetTotalCountRequest) (*api.CountResponse, error) {
	n, err := s.registry.TotalCount(ctx)
	if err != nil {
		return nil, s.fail(ctx, "total count", err)
	}
	return &api.CountResponse{Count: n}, nil
}

func (s *GRPCServer) GetMessageMetadata(ctx context.Context, req *api.MessageRequest) (*api.MetadataResponse, error) {
	md, err := s.registry.MessageMetadata(ctx, req.MessageID)
	if err != nil {
		return nil, s.fail(ctx, "metadata", err)
	}
	return &api.MetadataResponse{Sender: md.Sender, CreatedAt: md.CreatedAt, Exists: md.Exists}, nil
}

func (s *GRPCServer) GetEncryptedContent(ctx context.Context, req *api.MessageRequest) (*api.HandleResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.registry.EncryptedContent(ctx, req.MessageID, caller)
	if err != nil {
		return nil, s.fail(ctx, "encrypted content", err)
	}
	return &api.HandleResponse{Handle: h}, nil
}

func (s *GRPCServer) GetEncryptedTimestamp(ctx context.Context, req *api.MessageRequest) (*api.HandleResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.registry.EncryptedTimestamp(ctx, req.MessageID, caller)
	if err != nil {
		return nil, s.fail(ctx, "encrypted timestamp", err)
	}
	return &api.HandleResponse{Handle: h}, nil
}

func (s *GRPCServer) IsMessageOwner(ctx context.Context, req *api.MessageRequest) (*api.OwnerResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.registry.IsMessageOwner(ctx, req.MessageID, caller)
	if err != nil {
		return nil, s.fail(ctx, "owner", err)
	}
	return &api.OwnerResponse{Owner: ok}, nil
}

func (s *GRPCServer) Decrypt(ctx context.Context, req *api.DecryptRequest) (*api.DecryptResponse, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.crypto.Decrypt(ctx, req.Handle, caller)
	if err != nil {
		return nil, s.fail(ctx, "decrypt", err)
	}
	return &api.DecryptResponse{Value: v.Dec()}, nil
}

// WatchMessages streams MessageCreated events until the client goes away.
// Events dropped for a slow client are not replayed.
func (s *GRPCServer) WatchMessages(req *api.WatchRequest, stream grpc.ServerStreamingServer[api.MessageEvent]) error {
	ctx := stream.Context()
	ch, cancel := s.feed.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if req.Sender != nil && *req.Sender != e.Sender {
				continue
			}
			if err := stream.Send(&api.MessageEvent{MessageID: e.MessageID, Sender: e.Sender, CreatedAt: e.CreatedAt}); err != nil {
				return err
			}
		}
	}
}
