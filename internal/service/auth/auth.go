package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
)

const defaultRefreshCookieName = "refreshtoken"

type userService interface {
	CreateUser(ctx context.Context, name string, email string, password string) (models.User, error)
	Login(ctx context.Context, email string, password string) (models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	ParseAccess(ctx context.Context, access string) (userID uuid.UUID, err error)
}

type Config struct {
	// Name of the cookie the refresh token travels in
	// If not set then default is used
	RefreshCookieName string
}

// AuthService issues tokens on register/login and authenticates
// requests. Authentication never trusts the token payload alone: the
// token's subject must still exist in storage.
type AuthService struct {
	cookieName string
	token      tokenManager
	users      userService
}

func NewService(cfg Config, token tokenManager, users userService) (*AuthService, error) {
	if token == nil || users == nil {
		return nil, errors.New("token manager and user service must not be nil")
	}

	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	return &AuthService{
		cookieName: cfg.RefreshCookieName,
		token:      token,
		users:      users,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.TokenPair, error) {
	user, err := s.users.CreateUser(ctx, name, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.Login(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Refresh rotates the pair: the given refresh token is single use
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetUser(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.token.GeneratePair(ctx, user)
}

// Auth resolves the request's bearer token to a user.
// Returns apperrors.ErrTokenMissing when no bearer credential is
// present and apperrors.ErrTokenInvalid when it fails verification or
// its subject no longer exists.
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	header := r.Header.Get("Authorization")
	bearer, found := strings.CutPrefix(header, "Bearer ")
	if !found || bearer == "" {
		return user, apperrors.ErrTokenMissing
	}

	userID, err := s.token.ParseAccess(ctx, bearer)
	if err != nil {
		return user, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	// A token of a deleted account must not authenticate
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		return user, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	return user, nil
}

// SetRefreshCookie stores the refresh token in an HttpOnly cookie.
// The access token itself is returned to the client in the response body.
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ReadRefreshToken extracts the refresh token from the request cookie
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenNotFound, err)
	}

	return cookie.Value, nil
}
