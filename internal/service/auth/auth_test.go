package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/repository/postgres"
	"github.com/mpetrov/walletd/internal/service/auth"
	"github.com/mpetrov/walletd/internal/service/auth/tokenmanager"
	"github.com/mpetrov/walletd/internal/service/user"
	"github.com/mpetrov/walletd/internal/testutil"
)

func TestAuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	const secret = "test-secret"

	inTx := func(t *testing.T, fn func(s *auth.AuthService)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: secret}, storage.Refresh())
			require.NoError(t, err)

			s, err := auth.NewService(auth.Config{}, tm, user.NewService(nil, storage))
			require.NoError(t, err)

			fn(s)
		})
	}

	requestWithBearer := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return r
	}

	t.Run("register and authenticate", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			pair, err := s.Register(t.Context(), "Nina", "nina@example.com", "password123")
			require.NoError(t, err)
			require.NotEmpty(t, pair.Access.Value)

			got, err := s.Auth(t.Context(), requestWithBearer(pair.Access.Value))

			require.NoError(t, err)
			require.Equal(t, "nina@example.com", got.Email)
		})
	})

	t.Run("register duplicate", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			_, err := s.Register(t.Context(), "Nina", "nina@example.com", "password123")
			require.NoError(t, err)

			_, err = s.Register(t.Context(), "Nina", "nina@example.com", "password123")

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("login ok and wrong password", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			_, err := s.Register(t.Context(), "Nina", "nina@example.com", "password123")
			require.NoError(t, err)

			pair, err := s.Login(t.Context(), "nina@example.com", "password123")
			require.NoError(t, err)
			require.NotEmpty(t, pair.Access.Value)

			_, err = s.Login(t.Context(), "nina@example.com", "wrong")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("auth without token", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			_, err := s.Auth(t.Context(), requestWithBearer(""))

			require.ErrorIs(t, err, apperrors.ErrTokenMissing)
		})
	})

	t.Run("auth with malformed header", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Token abc")

			_, err := s.Auth(t.Context(), r)

			require.ErrorIs(t, err, apperrors.ErrTokenMissing)
		})
	})

	t.Run("auth with garbage token", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			_, err := s.Auth(t.Context(), requestWithBearer("not.a.jwt"))

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})
	})

	t.Run("valid token of nonexistent user rejected", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			// Well signed token whose subject never existed in storage
			now := time.Now()
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenmanager.AccessTokenClaims{
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        uuid.NewString(),
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
				UserID: uuid.New(),
			})
			signed, err := token.SignedString([]byte(secret))
			require.NoError(t, err)

			_, err = s.Auth(t.Context(), requestWithBearer(signed))

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "existence check must reject the token")
		})
	})

	t.Run("refresh rotates pair", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			pair, err := s.Register(t.Context(), "Nina", "nina@example.com", "password123")
			require.NoError(t, err)

			fresh, err := s.Refresh(t.Context(), pair.Refresh.Value)

			require.NoError(t, err)
			require.NotEmpty(t, fresh.Access.Value)
			require.NotEqual(t, pair.Refresh.Value, fresh.Refresh.Value)

			_, err = s.Refresh(t.Context(), pair.Refresh.Value)
			require.Error(t, err, "refresh token is single use")
		})
	})

	t.Run("refresh cookie roundtrip", func(t *testing.T) {
		inTx(t, func(s *auth.AuthService) {
			pair, err := s.Register(t.Context(), "Nina", "nina@example.com", "password123")
			require.NoError(t, err)

			w := httptest.NewRecorder()
			s.SetRefreshCookie(w, pair)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			require.Equal(t, "refreshtoken", cookies[0].Name)
			require.True(t, cookies[0].HttpOnly)

			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.AddCookie(cookies[0])

			got, err := s.ReadRefreshToken(r)
			require.NoError(t, err)
			require.Equal(t, pair.Refresh.Value, got)
		})
	})
}
