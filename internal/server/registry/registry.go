// Package registry implements the encrypted message registry: it records
// proven ciphertext handles per sender, assigns sequential ids, and hands
// the handles back only to the identity that submitted them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/logging"
	"github.com/dmitrijs2005/fheregistry/internal/server/events"
	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/messages"
	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fheregistry/internal/timex"
	gethcommon "github.com/luxfi/geth/common"
)

// Collaborator is the FHE network as seen by the registry.
type Collaborator interface {
	// ImportCiphertext validates proof for (registry, caller) and returns
	// the internal handle. A rejected proof wraps common.ErrProofInvalid.
	ImportCiphertext(ctx context.Context, external gethcommon.Hash, proof []byte, registry, caller gethcommon.Address) (gethcommon.Hash, error)
	GrantAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error
	RevokeAccess(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) error
	IsAllowed(ctx context.Context, handle gethcommon.Hash, identity gethcommon.Address) (bool, error)
}

type grant struct {
	handle   gethcommon.Hash
	identity gethcommon.Address
}

type Registry struct {
	address gethcommon.Address
	repos   repomanager.RepositoryManager
	fhe     Collaborator
	sink    events.Sink
	logger  logging.Logger
	clock   func() time.Time

	// mu orders submissions the way a ledger would.
	mu sync.Mutex
}

type Option func(*Registry)

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithSink(s events.Sink) Option {
	return func(r *Registry) { r.sink = s }
}

func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

func New(address gethcommon.Address, repos repomanager.RepositoryManager, fhe Collaborator, opts ...Option) *Registry {
	r := &Registry{
		address: address,
		repos:   repos,
		fhe:     fhe,
		logger:  logging.Nop{},
		clock:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("module", "registry")
	return r
}

// Address is the identity input proofs must be bound to.
func (r *Registry) Address() gethcommon.Address {
	return r.address
}

// Submit imports both handles, grants the caller and the registry access
// to them and stores a new message. It returns the assigned id.
//
// A failed submit leaves no grants behind: grants added by this call are
// revoked when a later step fails. Imported internal ciphertexts stay in
// the collaborator but are unreadable without a grant.
func (r *Registry) Submit(ctx context.Context, caller gethcommon.Address, content, timestamp gethcommon.Hash, proof []byte) (id uint64, err error) {
	c, err := r.fhe.ImportCiphertext(ctx, content, proof, r.address, caller)
	if err != nil {
		return 0, fmt.Errorf("import content: %w", err)
	}
	ts, err := r.fhe.ImportCiphertext(ctx, timestamp, proof, r.address, caller)
	if err != nil {
		return 0, fmt.Errorf("import timestamp: %w", err)
	}

	// Grants and the insert run under one lock so a concurrent submit of
	// the same handles never sees grants that are about to be revoked.
	r.mu.Lock()
	defer r.mu.Unlock()

	var added []grant
	defer func() {
		if err != nil {
			r.revoke(ctx, added)
		}
	}()

	for _, h := range []gethcommon.Hash{c, ts} {
		for _, who := range []gethcommon.Address{caller, r.address} {
			had, err := r.fhe.IsAllowed(ctx, h, who)
			if err != nil {
				return 0, fmt.Errorf("grant access: %w", err)
			}
			if had {
				continue
			}
			if err := r.fhe.GrantAccess(ctx, h, who); err != nil {
				return 0, fmt.Errorf("grant access: %w", err)
			}
			added = append(added, grant{handle: h, identity: who})
		}
	}

	msg := &models.Message{
		Sender:             caller,
		EncryptedContent:   c,
		EncryptedTimestamp: ts,
		CreatedAt:          timex.UnixSeconds(r.clock()),
	}
	err = r.repos.WithTx(ctx, func(ctx context.Context, repo messages.Repository) error {
		id, err := repo.NextID(ctx)
		if err != nil {
			return err
		}
		msg.ID = id
		return repo.Insert(ctx, msg)
	})
	if err != nil {
		r.logger.Error(ctx, "store message failed", "sender", caller.Hex(), "error", err)
		return 0, fmt.Errorf("store message: %w", err)
	}

	r.logger.Info(ctx, "message stored", "id", msg.ID, "sender", caller.Hex())
	r.publish(ctx, msg)
	return msg.ID, nil
}

// revoke undoes grants of a failed submit. Failures are logged only; the
// submit error is what the caller sees.
func (r *Registry) revoke(ctx context.Context, grants []grant) {
	for _, g := range grants {
		if err := r.fhe.RevokeAccess(ctx, g.handle, g.identity); err != nil {
			r.logger.Error(ctx, "revoke grant failed", "handle", g.handle.Hex(), "identity", g.identity.Hex(), "error", err)
		}
	}
}

func (r *Registry) publish(ctx context.Context, m *models.Message) {
	if r.sink == nil {
		return
	}
	e := events.MessageCreated{MessageID: m.ID, Sender: m.Sender, CreatedAt: m.CreatedAt}
	if err := r.sink.Publish(ctx, e); err != nil {
		r.logger.Warn(ctx, "publish MessageCreated failed", "id", m.ID, "error", err)
	}
}

// UserMessages lists the caller's message ids in submission order.
func (r *Registry) UserMessages(ctx context.Context, caller gethcommon.Address) ([]uint64, error) {
	ids, err := r.repos.Messages().SelectIDsBySender(ctx, caller)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

func (r *Registry) UserMessageCount(ctx context.Context, identity gethcommon.Address) (uint64, error) {
	return r.repos.Messages().CountBySender(ctx, identity)
}

func (r *Registry) TotalCount(ctx context.Context) (uint64, error) {
	return r.repos.Messages().Count(ctx)
}

// MessageMetadata is public. Unknown ids yield a zero Metadata with
// Exists false rather than an error.
func (r *Registry) MessageMetadata(ctx context.Context, id uint64) (models.Metadata, error) {
	m, err := r.repos.Messages().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Metadata{}, nil
		}
		return models.Metadata{}, err
	}
	return m.Metadata(), nil
}

func (r *Registry) EncryptedContent(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error) {
	m, err := r.owned(ctx, id, caller)
	if err != nil {
		return gethcommon.Hash{}, err
	}
	return m.EncryptedContent, nil
}

func (r *Registry) EncryptedTimestamp(ctx context.Context, id uint64, caller gethcommon.Address) (gethcommon.Hash, error) {
	m, err := r.owned(ctx, id, caller)
	if err != nil {
		return gethcommon.Hash{}, err
	}
	return m.EncryptedTimestamp, nil
}

// IsMessageOwner reports exists(id) && sender == caller. Unknown ids are
// false, not an error; only storage failures are returned.
func (r *Registry) IsMessageOwner(ctx context.Context, id uint64, caller gethcommon.Address) (bool, error) {
	m, err := r.repos.Messages().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.OwnedBy(caller), nil
}

func (r *Registry) get(ctx context.Context, id uint64) (*models.Message, error) {
	m, err := r.repos.Messages().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("message %d: %w", id, common.ErrMessageNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (r *Registry) owned(ctx context.Context, id uint64, caller gethcommon.Address) (*models.Message, error) {
	m, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.OwnedBy(caller) {
		return nil, fmt.Errorf("message %d: %w", id, common.ErrNotAuthorized)
	}
	return m, nil
}
