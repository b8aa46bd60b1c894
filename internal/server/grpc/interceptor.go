package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/logging"
	"github.com/dmitrijs2005/fheregistry/internal/server/auth"
	"github.com/google/uuid"
	gethcommon "github.com/luxfi/geth/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	IdentityKey ctxKey = "identity"
	loggerKey   ctxKey = "logger"
)

// Methods callable without an access token.
var publicMethods = map[string]bool{
	api.FullMethod(api.MethodPing):                true,
	api.FullMethod(api.MethodInfo):                true,
	api.FullMethod(api.MethodGetMessageMetadata):  true,
	api.FullMethod(api.MethodGetUserMessageCount): true,
	api.FullMethod(api.MethodGetTotalCount):       true,
	api.FullMethod(api.MethodWatchMessages):       true,
}

// authenticate resolves the caller from the access token, if any. A token
// that is present but invalid is rejected even on public methods.
func (s *GRPCServer) authenticate(ctx context.Context, method string) (context.Context, error) {
	requestID := uuid.NewString()
	reqLog := s.logger.With("request_id", requestID, "method", method)
	ctx = context.WithValue(ctx, loggerKey, reqLog)
	// No transport stream outside a real RPC, e.g. direct handler calls.
	if err := grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, requestID)); err != nil {
		reqLog.Debug(ctx, "set request id header failed", "error", err)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}

	if len(accessToken) == 0 {
		if publicMethods[method] {
			return ctx, nil
		}
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	identity, err := auth.IdentityFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return context.WithValue(ctx, IdentityKey, identity), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authStream) Context() context.Context {
	return a.ctx
}

func (s *GRPCServer) streamAccessTokenInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
}

func identityFromContext(ctx context.Context) (gethcommon.Address, bool) {
	id, ok := ctx.Value(IdentityKey).(gethcommon.Address)
	return id, ok
}

func (s *GRPCServer) log(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(loggerKey).(logging.Logger); ok {
		return l
	}
	return s.logger
}
