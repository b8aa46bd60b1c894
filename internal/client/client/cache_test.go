package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"goose_db_version", "metadata", "messages"} {
		assert.True(t, tableExists(t, db, table), table)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
}

func TestCache_BindDropsOtherRegistry(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	regA := gethcommon.HexToAddress("0xaa")
	regB := gethcommon.HexToAddress("0xbb")

	c, err := OpenCache(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, c.Bind(ctx, regA))
	msg := &models.CachedMessage{ID: 0, Owner: alice, Content: "42", Timestamp: "1700000000", CreatedAt: 1700000001}
	require.NoError(t, c.Put(ctx, msg))
	require.NoError(t, c.Close())

	// Reopening against the same registry keeps the data.
	c, err = OpenCache(ctx, dsn)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Bind(ctx, regA))

	got, err := c.Get(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	require.NoError(t, c.Bind(ctx, regB))
	_, err = c.Get(ctx, alice, 0)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := c.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenCache_CreatesParentDirectory(t *testing.T) {
	ctx := context.Background()
	c, err := OpenCache(ctx, filepath.Join(t.TempDir(), "nested", "dir", "cache.db"))
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
