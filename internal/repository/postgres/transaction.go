package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, created_at, sender_id, receiver_id, amount, kind, status, external_ref, counterparty_upi, description`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, sender_id, receiver_id, amount, kind, status, external_ref, counterparty_upi, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + transactionColumns

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		t.ID, t.CreatedAt, t.SenderID, t.ReceiverID, t.Amount,
		t.Kind, t.Status, t.ExternalRef, t.CounterpartyUpi, t.Description,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTransaction = `-- name: GetTransaction
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = $1
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	return collectTransaction(rows)
}

const getUserTransaction = `-- name: GetUserTransaction
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = $1 AND (sender_id = $2 OR receiver_id = $2)
`

func (r *TransactionRepo) GetUserTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getUserTransaction, id, userID)
	return collectTransaction(rows)
}

const listUserTransactions = `-- name: ListUserTransactions
SELECT ` + transactionColumns + ` FROM transactions
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC
`

func (r *TransactionRepo) ListUserTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listUserTransactions, userID)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

// Status guarded transition: only a pending row may be updated. If the
// topup is already success or failed no row comes back and the caller
// gets ErrTransactionNotFound for this guarded view of the row.
const succeedTopup = `-- name: SucceedTopup
UPDATE transactions
SET status = 'success'
WHERE id = $1 AND kind = 'topup' AND status = 'pending'
RETURNING ` + transactionColumns

func (r *TransactionRepo) SucceedTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, succeedTopup, id)
	return collectTransaction(rows)
}

const failTopup = `-- name: FailTopup
UPDATE transactions
SET status = 'failed'
WHERE id = $1 AND kind = 'topup' AND status = 'pending'
RETURNING ` + transactionColumns

func (r *TransactionRepo) FailTopup(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, failTopup, id)
	return collectTransaction(rows)
}

func collectTransaction(rows pgx.Rows) (models.Transaction, error) {
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, apperrors.ErrTransactionNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.SenderID, &t.ReceiverID, &t.Amount,
		&t.Kind, &t.Status, &t.ExternalRef, &t.CounterpartyUpi, &t.Description,
	)
	return t, err
}
