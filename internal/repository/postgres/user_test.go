package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/repository"
	"github.com/mpetrov/walletd/internal/testutil"
)

func TestUser(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
				user, err := storage.User().CreateUser(t.Context(), "Test User", "test@example.com", "hashedpassword")

				require.NoError(t, err, "user has to be created ok")
				require.NotEmpty(t, user.ID)
				require.Equal(t, "Test User", user.Name)
				require.Equal(t, "test@example.com", user.Email)
				require.NotZero(t, user.CreatedAt)
			})
		})

		t.Run("create duplicate email", func(t *testing.T) {
			inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
				_, err := storage.User().CreateUser(t.Context(), "Test User", "test@example.com", "hashedpassword")
				require.NoError(t, err)

				_, err = storage.User().CreateUser(t.Context(), "Another Name", "test@example.com", "hash2")

				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("GetUser", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "Test User", "test@example.com", "hashedpassword")
			require.NoError(t, err)

			t.Run("by id", func(t *testing.T) {
				got, err := storage.User().GetUserByID(t.Context(), user.ID)

				require.NoError(t, err)
				require.Equal(t, user.ID, got.ID)
			})

			t.Run("by email", func(t *testing.T) {
				got, err := storage.User().GetUserByEmail(t.Context(), "test@example.com")

				require.NoError(t, err)
				require.Equal(t, user.ID, got.ID)
			})

			t.Run("missing", func(t *testing.T) {
				_, err := storage.User().GetUserByID(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})
}
