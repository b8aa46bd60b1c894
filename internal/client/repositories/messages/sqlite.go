// Package messages stores decrypted messages in the local SQLite cache.
package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/dbx"
	gethcommon "github.com/luxfi/geth/common"
)

type Repository interface {
	Put(ctx context.Context, m *models.CachedMessage) error
	// Get returns common.ErrorNotFound when the message is not cached.
	Get(ctx context.Context, owner gethcommon.Address, id uint64) (*models.CachedMessage, error)
	ListByOwner(ctx context.Context, owner gethcommon.Address) ([]*models.CachedMessage, error)
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, m *models.CachedMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, owner, content, timestamp, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			content = excluded.content,
			timestamp = excluded.timestamp,
			created_at = excluded.created_at
	`, int64(m.ID), m.Owner.Hex(), m.Content, m.Timestamp, int64(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to cache message %d: %w", m.ID, err)
	}
	return nil
}

func scanMessage(s interface{ Scan(...any) error }) (*models.CachedMessage, error) {
	var (
		id, createdAt int64
		owner         string
		m             models.CachedMessage
	)
	if err := s.Scan(&id, &owner, &m.Content, &m.Timestamp, &createdAt); err != nil {
		return nil, err
	}
	m.ID = uint64(id)
	m.Owner = gethcommon.HexToAddress(owner)
	m.CreatedAt = uint64(createdAt)
	return &m, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, owner gethcommon.Address, id uint64) (*models.CachedMessage, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, content, timestamp, created_at FROM messages WHERE id = ? AND owner = ?
	`, int64(id), owner.Hex())
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached message %d: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner gethcommon.Address) ([]*models.CachedMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, content, timestamp, created_at FROM messages WHERE owner = ? ORDER BY id
	`, owner.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to list cached messages: %w", err)
	}
	defer rows.Close()

	result := make([]*models.CachedMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached messages: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}
	return nil
}
