package client

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/client/repositories/messages"
	"github.com/dmitrijs2005/fheregistry/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fheregistry/internal/dbx"
	gethcommon "github.com/luxfi/geth/common"
)

// Cache holds messages the user already decrypted, for one registry at a
// time.
type Cache struct {
	db       *sql.DB
	messages messages.Repository
	metadata metadata.Repository
}

func OpenCache(ctx context.Context, dsn string) (*Cache, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Cache{
		db:       db,
		messages: messages.NewSQLiteRepository(db),
		metadata: metadata.NewSQLiteRepository(db),
	}, nil
}

// Bind ties the cache to registry. Messages cached from a different
// registry are dropped, since ids are only unique per registry.
func (c *Cache) Bind(ctx context.Context, registry gethcommon.Address) error {
	current, err := c.metadata.Get(ctx, metadata.KeyRegistry)
	if err != nil {
		return err
	}
	if current == registry.Hex() {
		return nil
	}

	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := messages.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Set(ctx, metadata.KeyRegistry, registry.Hex())
	})
}

func (c *Cache) Put(ctx context.Context, m *models.CachedMessage) error {
	return c.messages.Put(ctx, m)
}

func (c *Cache) Get(ctx context.Context, owner gethcommon.Address, id uint64) (*models.CachedMessage, error) {
	return c.messages.Get(ctx, owner, id)
}

func (c *Cache) List(ctx context.Context, owner gethcommon.Address) ([]*models.CachedMessage, error) {
	return c.messages.ListByOwner(ctx, owner)
}

func (c *Cache) Close() error {
	return c.db.Close()
}
