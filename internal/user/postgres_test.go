package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersync/ordersync/internal/db"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewPostgresStore(sqlx.NewDb(mockDB, "pgx")), mock
}

var (
	selectUserSQL = regexp.QuoteMeta("SELECT id, email FROM users WHERE id = $1")
	upsertUserSQL = regexp.QuoteMeta("INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email")
)

func TestPostgresStore_Get(t *testing.T) {
	t.Run("finds existing user", func(t *testing.T) {
		store, mock := newMockPostgresStore(t)

		mock.ExpectQuery(selectUserSQL).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("u-1", "ada@example.com"))

		u, err := store.Get(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, User{ID: "u-1", Email: "ada@example.com"}, u)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrUserNotFound for missing user", func(t *testing.T) {
		store, mock := newMockPostgresStore(t)

		mock.ExpectQuery(selectUserSQL).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.False(t, db.IsStorageError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		store, mock := newMockPostgresStore(t)

		mock.ExpectQuery(selectUserSQL).
			WithArgs("u-1").
			WillReturnError(errors.New("connection reset"))

		_, err := store.Get(context.Background(), "u-1")
		assert.True(t, db.IsStorageError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Put(t *testing.T) {
	t.Run("upserts user", func(t *testing.T) {
		store, mock := newMockPostgresStore(t)

		mock.ExpectExec(upsertUserSQL).
			WithArgs("u-1", "ada@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Put(context.Background(), User{ID: "u-1", Email: "ada@example.com"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		store, mock := newMockPostgresStore(t)

		mock.ExpectExec(upsertUserSQL).
			WithArgs("u-1", "ada@example.com").
			WillReturnError(errors.New("read-only transaction"))

		err := store.Put(context.Background(), User{ID: "u-1", Email: "ada@example.com"})
		assert.True(t, db.IsStorageError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
