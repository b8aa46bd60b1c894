package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/client/config"
	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/server/auth"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	alice    = gethcommon.HexToAddress("0x00000000000000000000000000000000000a11ce")
	registry = gethcommon.HexToAddress("0x0000000000000000000000000000000000000fee")
)

// fakeClient embeds the interface so unused methods panic loudly.
type fakeClient struct {
	registryClient

	closed int

	encrypted []*uint256.Int
	submitted []gethcommon.Hash
	submitErr error

	ids      []uint64
	count    uint64
	countFor *gethcommon.Address
	total    uint64
	meta     *api.MetadataResponse
	owner    bool

	handles   map[uint64][2]gethcommon.Hash
	plain     map[gethcommon.Hash]*uint256.Int
	readErr   error
	decrypts  int
	events    []*api.MessageEvent
	watchedBy *gethcommon.Address
}

func (f *fakeClient) Close() error { f.closed++; return nil }

func (f *fakeClient) Info(ctx context.Context) (*api.InfoResponse, error) {
	return &api.InfoResponse{Registry: registry, TotalCount: f.total}, nil
}

func (f *fakeClient) Encrypt(ctx context.Context, content, timestamp *uint256.Int) (*api.EncryptResponse, error) {
	f.encrypted = append(f.encrypted, content, timestamp)
	return &api.EncryptResponse{
		Content:   gethcommon.BytesToHash([]byte{1}),
		Timestamp: gethcommon.BytesToHash([]byte{2}),
		Proof:     []byte{0xaa},
	}, nil
}

func (f *fakeClient) Submit(ctx context.Context, content, timestamp gethcommon.Hash, proof []byte) (uint64, error) {
	if f.submitErr != nil {
		return 0, f.submitErr
	}
	f.submitted = append(f.submitted, content, timestamp)
	return 7, nil
}

func (f *fakeClient) UserMessages(ctx context.Context) ([]uint64, error) { return f.ids, nil }

func (f *fakeClient) UserMessageCount(ctx context.Context, identity *gethcommon.Address) (uint64, error) {
	f.countFor = identity
	return f.count, nil
}

func (f *fakeClient) TotalCount(ctx context.Context) (uint64, error) { return f.total, nil }

func (f *fakeClient) MessageMetadata(ctx context.Context, id uint64) (*api.MetadataResponse, error) {
	if f.meta == nil {
		return &api.MetadataResponse{}, nil
	}
	return f.meta, nil
}

func (f *fakeClient) EncryptedContent(ctx context.Context, id uint64) (gethcommon.Hash, error) {
	if f.readErr != nil {
		return gethcommon.Hash{}, f.readErr
	}
	return f.handles[id][0], nil
}

func (f *fakeClient) EncryptedTimestamp(ctx context.Context, id uint64) (gethcommon.Hash, error) {
	if f.readErr != nil {
		return gethcommon.Hash{}, f.readErr
	}
	return f.handles[id][1], nil
}

func (f *fakeClient) IsMessageOwner(ctx context.Context, id uint64) (bool, error) { return f.owner, nil }

func (f *fakeClient) Decrypt(ctx context.Context, handle gethcommon.Hash) (*uint256.Int, error) {
	f.decrypts++
	v, ok := f.plain[handle]
	if !ok {
		return nil, common.ErrAccessDenied
	}
	return v, nil
}

func (f *fakeClient) Watch(ctx context.Context, sender *gethcommon.Address, fn func(*api.MessageEvent) error) error {
	f.watchedBy = sender
	for _, e := range f.events {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

type cacheKey struct {
	owner gethcommon.Address
	id    uint64
}

type fakeCache struct {
	bound  gethcommon.Address
	data   map[cacheKey]*models.CachedMessage
	closed int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[cacheKey]*models.CachedMessage{}}
}

func (c *fakeCache) Bind(ctx context.Context, r gethcommon.Address) error {
	c.bound = r
	return nil
}

func (c *fakeCache) Put(ctx context.Context, m *models.CachedMessage) error {
	c.data[cacheKey{m.Owner, m.ID}] = m
	return nil
}

func (c *fakeCache) Get(ctx context.Context, owner gethcommon.Address, id uint64) (*models.CachedMessage, error) {
	m, ok := c.data[cacheKey{owner, id}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m, nil
}

func (c *fakeCache) List(ctx context.Context, owner gethcommon.Address) ([]*models.CachedMessage, error) {
	out := []*models.CachedMessage{}
	for k, m := range c.data {
		if k.owner == owner {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *fakeCache) Close() error { c.closed++; return nil }

// useFakes swaps the seams for the duration of the test and returns the
// config the commands were connected with.
func useFakes(t *testing.T, fc *fakeClient, cache *fakeCache) *config.Config {
	t.Helper()
	seen := &config.Config{}
	oldClient, oldCache := newClient, openCache
	newClient = func(cfg *config.Config) (registryClient, error) {
		*seen = *cfg
		return fc, nil
	}
	openCache = func(ctx context.Context, path string) (messageCache, error) {
		return cache, nil
	}
	t.Cleanup(func() { newClient, openCache = oldClient, oldCache })
	return seen
}

func aliceToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateToken(alice, []byte("secret"), time.Hour)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
