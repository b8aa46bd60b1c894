package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fheregistry/internal/server/repositories/messages"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNew_EmptyDSNSelectsMemory(t *testing.T) {
	m, err := New(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepositoryManager{}, m)
	assert.IsType(t, &messages.MemoryRepository{}, m.Messages())
}

func TestOpenPostgres_UsesPgxDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	var gotDriver, gotDSN string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return db, nil
	}

	m, err := OpenPostgres(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, "postgres://x", gotDSN)
	assert.IsType(t, &messages.PostgresRepository{}, m.Messages())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgres_PingError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }

	_, err = OpenPostgres(context.Background(), "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	require.NoError(t, NewPostgresRepositoryManager(db).RunMigrations(context.Background()))

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.EqualError(t, NewPostgresRepositoryManager(db).RunMigrations(context.Background()), "boom")
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err := m.WithTx(context.Background(), func(ctx context.Context, repo messages.Repository) error {
		assert.IsType(t, &messages.PostgresRepository{}, repo)
		return nil
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = m.WithTx(context.Background(), func(ctx context.Context, repo messages.Repository) error {
		return errors.New("insert failed")
	})
	assert.EqualError(t, err, "insert failed")

	require.NoError(t, mock.ExpectationsWereMet())
}
