package messages

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var (
	alice = gethcommon.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = gethcommon.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE messages (
  id         INTEGER PRIMARY KEY,
  owner      TEXT NOT NULL,
  content    TEXT NOT NULL,
  timestamp  TEXT NOT NULL,
  created_at INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestPutGetList(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	m2 := &models.CachedMessage{ID: 2, Owner: alice, Content: "300", Timestamp: "3", CreatedAt: 30}
	m0 := &models.CachedMessage{ID: 0, Owner: alice, Content: "100", Timestamp: "1", CreatedAt: 10}
	m1 := &models.CachedMessage{ID: 1, Owner: bob, Content: "200", Timestamp: "2", CreatedAt: 20}
	for _, m := range []*models.CachedMessage{m2, m0, m1} {
		require.NoError(t, r.Put(ctx, m))
	}

	got, err := r.Get(ctx, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, m2, got)

	_, err = r.Get(ctx, bob, 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := r.ListByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []*models.CachedMessage{m0, m2}, list)

	list, err = r.ListByOwner(ctx, gethcommon.Address{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPut_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.CachedMessage{ID: 0, Owner: alice, Content: "1", Timestamp: "1"}))
	require.NoError(t, r.Put(ctx, &models.CachedMessage{ID: 0, Owner: alice, Content: "2", Timestamp: "1"}))

	got, err := r.Get(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Content)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.CachedMessage{ID: 0, Owner: alice, Content: "1", Timestamp: "1"}))
	require.NoError(t, r.Clear(ctx))

	list, err := r.ListByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	assert.ErrorContains(t, r.Put(ctx, &models.CachedMessage{ID: 1}), "failed to cache message 1")
	_, err := r.Get(ctx, alice, 1)
	assert.ErrorContains(t, err, "failed to get cached message 1")
	_, err = r.ListByOwner(ctx, alice)
	assert.ErrorContains(t, err, "failed to list cached messages")
}
