package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/client/client"
	"github.com/dmitrijs2005/fheregistry/internal/client/config"
	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/server/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
)

type registryClient interface {
	Close() error
	Info(ctx context.Context) (*api.InfoResponse, error)
	Encrypt(ctx context.Context, content, timestamp *uint256.Int) (*api.EncryptResponse, error)
	Submit(ctx context.Context, content, timestamp gethcommon.Hash, proof []byte) (uint64, error)
	UserMessages(ctx context.Context) ([]uint64, error)
	UserMessageCount(ctx context.Context, identity *gethcommon.Address) (uint64, error)
	TotalCount(ctx context.Context) (uint64, error)
	MessageMetadata(ctx context.Context, id uint64) (*api.MetadataResponse, error)
	EncryptedContent(ctx context.Context, id uint64) (gethcommon.Hash, error)
	EncryptedTimestamp(ctx context.Context, id uint64) (gethcommon.Hash, error)
	IsMessageOwner(ctx context.Context, id uint64) (bool, error)
	Decrypt(ctx context.Context, handle gethcommon.Hash) (*uint256.Int, error)
	Watch(ctx context.Context, sender *gethcommon.Address, fn func(*api.MessageEvent) error) error
}

type messageCache interface {
	Bind(ctx context.Context, registry gethcommon.Address) error
	Put(ctx context.Context, m *models.CachedMessage) error
	Get(ctx context.Context, owner gethcommon.Address, id uint64) (*models.CachedMessage, error)
	List(ctx context.Context, owner gethcommon.Address) ([]*models.CachedMessage, error)
	Close() error
}

// seams for tests
var (
	newClient = func(cfg *config.Config) (registryClient, error) {
		return client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.AccessToken)
	}
	openCache = func(ctx context.Context, path string) (messageCache, error) {
		return client.OpenCache(ctx, path)
	}
)

// App carries the resolved configuration between cobra hooks and commands.
type App struct {
	config     *config.Config
	configPath string
}

func (a *App) client() (registryClient, error) {
	c, err := newClient(a.config)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.config.ServerEndpointAddr, err)
	}
	return c, nil
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// identity reads the address claim of the configured token. The signature
// is not checked here; the server does that on every call.
func (a *App) identity() (gethcommon.Address, error) {
	if a.config.AccessToken == "" {
		return gethcommon.Address{}, fmt.Errorf("access token required (--token)")
	}
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(a.config.AccessToken, claims); err != nil {
		return gethcommon.Address{}, fmt.Errorf("malformed access token: %w", err)
	}
	if !gethcommon.IsHexAddress(claims.Address) {
		return gethcommon.Address{}, fmt.Errorf("access token carries no address")
	}
	return gethcommon.HexToAddress(claims.Address), nil
}
