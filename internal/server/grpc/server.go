package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/fhe"
	"github.com/dmitrijs2005/fheregistry/internal/logging"
	"github.com/dmitrijs2005/fheregistry/internal/server/events"
	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"google.golang.org/grpc"
)

type registryService interface {
	Address() gethcommon.Address
	Submit(ctx context.Context, caller gethcommon.Address, content, timestamp gethcommon.Hash, proof []byte) (uint64, error)
	UserMessages(ctx context.Context, caller gethcommon.Address) ([]uint64, error)
	UserMessageCount(ctx context.Context, identity gethcommon.Address) (uint64, error)
	MessageMetadata(ctx context.Context, id uint64) (models.Metadata, error)
	EncryptedContent(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error)
	EncryptedTimestamp(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error)
	IsMessageOwner(ctx context.Context, id uint64, caller gethcommon.Address) (bool, error)
	TotalCount(ctx context.Context) (uint64, error)
}

type cryptoService interface {
	EncryptInput(ctx context.Context, registry, user gethcommon.Address, values ...*uint256.Int) (*fhe.Input, error)
	Decrypt(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (*uint256.Int, error)
}

type eventFeed interface {
	Subscribe() (<-chan events.MessageCreated, func())
}

type GRPCServer struct {
	address   string
	registry  registryService
	crypto    cryptoService
	feed      eventFeed
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, r registryService, c cryptoService, f eventFeed, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		registry:  r,
		crypto:    c,
		feed:      f,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	api.RegisterMessageRegistryServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
