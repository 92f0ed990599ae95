package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/apperrors"
)

const (
	TransactionKindTransfer = "transfer"
	TransactionKindTopup    = "topup"

	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Transaction is an immutable record of one value movement.
// Build values with NewTransfer or NewTopup: the constructors enforce
// the kind specific required fields, so a 'transfer' record always
// carries both parties and a 'topup' record is born pending with its
// gateway order reference.
type Transaction struct {
	ID        uuid.UUID
	CreatedAt time.Time

	SenderID   *uuid.UUID
	ReceiverID *uuid.UUID

	Amount decimal.Decimal
	Kind   string
	Status string

	// Gateway order id, set for topups only
	ExternalRef *string

	// Alias the sender addressed the receiver by, if any
	CounterpartyUpi *string

	Description *string
}

// NewTransfer builds a completed wallet-to-wallet transfer record.
func NewTransfer(senderID, receiverID uuid.UUID, amount decimal.Decimal, description *string, counterpartyUpi *string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, apperrors.ErrAmountInvalid
	}
	if senderID == receiverID {
		return Transaction{}, apperrors.ErrSelfTransfer
	}

	return Transaction{
		ID:              uuid.New(),
		CreatedAt:       time.Now(),
		SenderID:        &senderID,
		ReceiverID:      &receiverID,
		Amount:          amount,
		Kind:            TransactionKindTransfer,
		Status:          TransactionStatusSuccess,
		CounterpartyUpi: counterpartyUpi,
		Description:     description,
	}, nil
}

// NewTopup builds a pending topup record bound to a gateway order.
func NewTopup(userID uuid.UUID, amount decimal.Decimal, orderID string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, apperrors.ErrAmountInvalid
	}

	return Transaction{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		SenderID:    &userID,
		Amount:      amount,
		Kind:        TransactionKindTopup,
		Status:      TransactionStatusPending,
		ExternalRef: &orderID,
	}, nil
}
