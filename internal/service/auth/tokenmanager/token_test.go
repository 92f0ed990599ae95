package tokenmanager

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
	"github.com/mpetrov/walletd/internal/repository/postgres"
	"github.com/mpetrov/walletd/internal/testutil"
)

func TestTokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, cfg Config, fn func(m *TokenManager, user models.User)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			user, err := (&postgres.UserRepo{DB: tx}).CreateUser(t.Context(), "Test User", "token@example.com", "hash")
			require.NoError(t, err)

			m, err := New(cfg, &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err)

			fn(m, user)
		})
	}

	t.Run("requires secret key", func(t *testing.T) {
		_, err := New(Config{}, nil)

		require.Error(t, err)
	})

	t.Run("generate and parse access", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret"}, func(m *TokenManager, user models.User) {
			pair, err := m.GeneratePair(t.Context(), user)

			require.NoError(t, err)
			require.NotEmpty(t, pair.Access.Value)
			require.NotEmpty(t, pair.Refresh.Value)
			require.True(t, pair.Access.ExpiresAt.After(time.Now()))

			userID, err := m.ParseAccess(t.Context(), pair.Access.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, userID)
		})
	})

	t.Run("parse with wrong key fails", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret"}, func(m *TokenManager, user models.User) {
			pair, err := m.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			other, err := New(Config{SecretKey: "other-secret"}, nil)
			require.NoError(t, err)

			_, err = other.ParseAccess(t.Context(), pair.Access.Value)

			require.Error(t, err, "token signed with different key must not parse")
		})
	})

	t.Run("expired access fails", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret", AccessTTL: -time.Minute}, func(m *TokenManager, user models.User) {
			pair, err := m.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), pair.Access.Value)

			require.Error(t, err, "expired token must not parse")
		})
	})

	t.Run("refresh is single use", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret"}, func(m *TokenManager, user models.User) {
			pair, err := m.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			token, err := m.UseRefresh(t.Context(), pair.Refresh.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, token.UserID)

			_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
		})
	})

	t.Run("expired refresh fails", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret", RefreshTTL: -time.Minute}, func(m *TokenManager, user models.User) {
			pair, err := m.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
		})
	})

	t.Run("unknown refresh fails", func(t *testing.T) {
		inTx(t, Config{SecretKey: "test-secret"}, func(m *TokenManager, user models.User) {
			_, err := m.UseRefresh(t.Context(), "never-issued")

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})
}
