package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
	"github.com/mpetrov/walletd/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withToken := func(t *testing.T, fn func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "Test User", "test@example.com", "hash")
			require.NoError(t, err)

			token := models.RefreshToken{
				ID:        uuid.New(),
				UserID:    user.ID,
				Token:     "secret-token",
				CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
				ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
				UsedAt:    nil,
			}

			fn(tx, &RefreshTokenRepo{DB: tx}, token)
		})
	}

	t.Run("save and get token ok", func(t *testing.T) {
		withToken(t, func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken) {
			err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserID, got.UserID)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
			require.Nil(t, got.UsedAt)
		})
	})

	t.Run("get missing token", func(t *testing.T) {
		withToken(t, func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken) {
			_, err := repo.Get(t.Context(), "never-saved")

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("mark token used", func(t *testing.T) {
		withToken(t, func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken) {
			err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			usedAt, err := repo.MarkUsed(t.Context(), token.Token)

			require.NoError(t, err)
			require.False(t, usedAt.IsZero())
		})
	})

	t.Run("mark used twice", func(t *testing.T) {
		withToken(t, func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken) {
			err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			firstUsedAt, err := repo.MarkUsed(t.Context(), token.Token)
			require.NoError(t, err)

			secondUsedAt, err := repo.MarkUsed(t.Context(), token.Token)

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
			require.Equal(t, firstUsedAt, secondUsedAt, "used_at must not be overwritten")
		})
	})

	t.Run("mark used missing token", func(t *testing.T) {
		withToken(t, func(tx pgx.Tx, repo *RefreshTokenRepo, token models.RefreshToken) {
			_, err := repo.MarkUsed(t.Context(), "never-saved")

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})
}
