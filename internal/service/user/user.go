package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
	"github.com/mpetrov/walletd/internal/repository"
	"github.com/mpetrov/walletd/internal/service/auth"
)

const upiDomain = "wallet"

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// CreateUser registers the user and opens their wallet with a fresh
// payment alias. Both rows are written in one transaction: a user
// without a wallet must not exist.
func (s *UserService) CreateUser(ctx context.Context, name string, email string, password string) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	upiID, err := generateUpi(email)
	if err != nil {
		return user, fmt.Errorf("can't generate payment alias. Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().CreateUser(ctx, name, email, hash)
		if err != nil {
			return err
		}

		_, err = storage.Wallet().CreateWallet(ctx, user.ID, upiID)
		return err
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

// Login verifies the credentials and returns the user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return s.storage.Wallet().GetWallet(ctx, userID)
}

// Alias is derived from the email local part plus a short random
// suffix and is matched exactly afterwards, no normalization.
func generateUpi(email string) (string, error) {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		local = "user"
	}

	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s.%s@%s", local, hex.EncodeToString(b), upiDomain), nil
}
