package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (id, user_id, upi_id, balance)
VALUES ($1, $2, $3, 0)
RETURNING id, user_id, created_at, upi_id, balance
`

func (r *WalletRepo) CreateWallet(ctx context.Context, userID uuid.UUID, upiID string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, uuid.New(), userID, upiID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, fmt.Errorf("wallet or upi id already exists: %w", err)
		}

		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT id, user_id, created_at, upi_id, balance FROM wallets
WHERE user_id = $1
`

func (r *WalletRepo) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const getWalletByUpi = `-- name: GetWalletByUpi
SELECT id, user_id, created_at, upi_id, balance FROM wallets
WHERE upi_id = $1
`

// Alias lookup is an exact match: no trimming, no case folding.
func (r *WalletRepo) GetWalletByUpi(ctx context.Context, upiID string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWalletByUpi, upiID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrUpiNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

// Balance check and decrement in one statement: two concurrent debits
// serialize on the row lock, the second one re-evaluates the condition
// against the committed balance and misses if funds are gone.
const debitWallet = `-- name: DebitWallet
UPDATE wallets
SET balance = balance - $2
WHERE user_id = $1 AND balance >= $2
RETURNING id, user_id, created_at, upi_id, balance
`

func (r *WalletRepo) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, debitWallet, userID, amount)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No row updated: either the wallet is missing or the guard failed
		if _, getErr := r.GetWallet(ctx, userID); getErr != nil {
			return wallet, getErr
		}
		return wallet, apperrors.ErrBalanceInsufficient
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const creditWallet = `-- name: CreditWallet
UPDATE wallets
SET balance = balance + $2
WHERE user_id = $1
RETURNING id, user_id, created_at, upi_id, balance
`

func (r *WalletRepo) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, creditWallet, userID, amount)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpiID, &w.Balance)
	return w, err
}
