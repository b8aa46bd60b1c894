package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/dbx"
	"github.com/dmitrijs2005/fheregistry/internal/server/models"
	gethcommon "github.com/luxfi/geth/common"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// Ids come from the single-row registry_state counter, so NextID and Insert
// must run in the same transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NextID bumps the counter and returns its previous value.
func (r *PostgresRepository) NextID(ctx context.Context) (uint64, error) {
	query := `UPDATE registry_state SET total_count = total_count + 1
		RETURNING total_count - 1`

	var id int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(id), nil
}

func (r *PostgresRepository) Insert(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO messages (id, sender, encrypted_content, encrypted_timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	res, err := r.db.ExecContext(ctx, query,
		int64(m.ID), m.Sender.Bytes(), m.EncryptedContent.Bytes(), m.EncryptedTimestamp.Bytes(), int64(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uint64) (*models.Message, error) {
	query := `SELECT id, sender, encrypted_content, encrypted_timestamp, created_at FROM messages
		WHERE id = $1`

	var (
		rowID, createdAt            int64
		sender, content, timestamp []byte
	)
	err := r.db.QueryRowContext(ctx, query, int64(id)).Scan(&rowID, &sender, &content, &timestamp, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &models.Message{
		ID:                 uint64(rowID),
		Sender:             gethcommon.BytesToAddress(sender),
		EncryptedContent:   gethcommon.BytesToHash(content),
		EncryptedTimestamp: gethcommon.BytesToHash(timestamp),
		CreatedAt:          uint64(createdAt),
	}, nil
}

func (r *PostgresRepository) SelectIDsBySender(ctx context.Context, sender gethcommon.Address) ([]uint64, error) {
	query := `SELECT id FROM messages WHERE sender = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, sender.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	result := make([]uint64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountBySender(ctx context.Context, sender gethcommon.Address) (uint64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE sender = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, sender.Bytes()).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(n), nil
}

func (r *PostgresRepository) Count(ctx context.Context) (uint64, error) {
	query := `SELECT total_count FROM registry_state`

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(n), nil
}
