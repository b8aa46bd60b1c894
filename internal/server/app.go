// Package server assembles the registry process: storage backend and
// migrations, the FHE service and its ciphertext store, event sinks, the
// registry itself and the gRPC endpoint, with signal-driven shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/fheregistry/internal/fhe"
	"github.com/dmitrijs2005/fheregistry/internal/logging"
	"github.com/dmitrijs2005/fheregistry/internal/server/config"
	"github.com/dmitrijs2005/fheregistry/internal/server/events"
	"github.com/dmitrijs2005/fheregistry/internal/server/registry"
	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/repomanager"
	gethcommon "github.com/luxfi/geth/common"

	gs "github.com/dmitrijs2005/fheregistry/internal/server/grpc"
)

const feedBuffer = 64

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	registry *registry.Registry
	grpc     *gs.GRPCServer
}

// seam for tests
var newS3Store = func(ctx context.Context, c fhe.S3Config) (fhe.Store, error) {
	return fhe.NewS3Store(ctx, c)
}

func newFHEStore(ctx context.Context, c *config.Config) (fhe.Store, error) {
	if c.S3Bucket == "" {
		return fhe.NewMemoryStore(), nil
	}
	return newS3Store(ctx, fhe.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	if !gethcommon.IsHexAddress(c.RegistryAddress) {
		return nil, fmt.Errorf("invalid registry address %q", c.RegistryAddress)
	}
	address := gethcommon.HexToAddress(c.RegistryAddress)

	repos, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newFHEStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("ciphertext store init error: %w", err)
	}
	svc, err := fhe.NewService(fhe.DeriveKeys([]byte(c.FHESecret), []byte(c.FHESalt)), store)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("fhe init error: %w", err)
	}

	feed := events.NewFeed(feedBuffer)
	reg := registry.New(address, repos, svc,
		registry.WithLogger(logger),
		registry.WithSink(events.Multi{events.NewLogSink(logger), feed}))

	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, reg, svc, feed, c.SecretKey)

	return &App{config: c, logger: logger, repos: repos, registry: reg, grpc: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the storage backend.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "registry", app.registry.Address().Hex())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
