package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/models"
)

// Storage bundles the entity repositories and the atomic mutation
// primitive. InTx runs fn with a Storage bound to one database
// transaction: every repo call inside commits together or not at all.
type Storage interface {
	User() UserRepo
	Wallet() WalletRepo
	Transaction() TransactionRepo
	Refresh() RefreshTokenRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Wallet repository interface
type WalletRepo interface {
	// Create wallet with zero balance and the given payment alias
	CreateWallet(ctx context.Context, userID uuid.UUID, upiID string) (models.Wallet, error)

	// Get wallet by owner or by alias (exact match)
	// Must return apperrors.ErrWalletNotFound / apperrors.ErrUpiNotFound when missing
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	GetWalletByUpi(ctx context.Context, upiID string) (models.Wallet, error)

	// Debit subtracts amount only if the remaining balance stays
	// non negative. The check and the write are one statement, so
	// concurrent debits of the same wallet can not both pass the check.
	// Returns apperrors.ErrBalanceInsufficient when funds are short.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)

	// Credit adds amount to the wallet balance
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)
}

// Transaction repository interface
type TransactionRepo interface {
	// Persist a transaction record as is
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Get transaction by id
	// Must return apperrors.ErrTransactionNotFound when missing
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// Get transaction by id only if the user is one of its parties
	GetUserTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error)

	// List user transactions (both legs), newest first
	ListUserTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)

	// SucceedTopup transitions a topup from pending to success.
	// The update is guarded by the current status: if the row is not
	// pending anymore no row is returned and the repo reports
	// apperrors.ErrTransactionNotFound, letting the caller decide
	// whether an already confirmed topup is a no-op.
	SucceedTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// FailTopup transitions a topup from pending to failed, same guard
	FailTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists, even expired or used
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used
	// Must not overwrite 'usedAt' of an already used token: returns
	// apperrors.ErrRefreshTokenIsUsed instead
	MarkUsed(ctx context.Context, tokenString string) (usedAt time.Time, err error)
}
