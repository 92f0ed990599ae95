package topup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/gateway/razorpay"
	"github.com/mpetrov/walletd/internal/models"
	"github.com/mpetrov/walletd/internal/repository"
)

// Minimum topup amount in major units
var defaultMinAmount = decimal.NewFromInt(10)

// Gateway is the payment collaborator contract the reconciler relies
// on: create a remote order, verify a callback signature. Nothing else.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (razorpay.Order, error)
	VerifyPaymentSignature(orderID string, paymentID string, signature string) bool
}

// TopupService bridges the external payment gateway into the ledger
// with a two phase protocol: a pending transaction bound to a gateway
// order, later converted into a balance credit exactly once.
type TopupService struct {
	minAmount decimal.Decimal
	gateway   Gateway
	storage   repository.Storage
}

func NewService(gateway Gateway, storage repository.Storage) *TopupService {
	return &TopupService{
		minAmount: defaultMinAmount,
		gateway:   gateway,
		storage:   storage,
	}
}

// Initiate creates a gateway order and persists a pending topup bound
// to it. The gateway is called first: if order creation fails nothing
// is persisted, so no orphaned pending row can ever exist.
func (s *TopupService) Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Transaction, razorpay.Order, error) {
	if amount.LessThan(s.minAmount) {
		return models.Transaction{}, razorpay.Order{}, apperrors.ErrTopupAmountTooSmall
	}

	// Wallet must exist to receive the credit later
	if _, err := s.storage.Wallet().GetWallet(ctx, userID); err != nil {
		return models.Transaction{}, razorpay.Order{}, err
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixNano())
	order, err := s.gateway.CreateOrder(ctx, amount, receipt)
	if err != nil {
		return models.Transaction{}, razorpay.Order{}, fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err)
	}

	transaction, err := models.NewTopup(userID, amount, order.ID)
	if err != nil {
		return models.Transaction{}, razorpay.Order{}, err
	}

	transaction, err = s.storage.Transaction().CreateTransaction(ctx, transaction)
	if err != nil {
		return models.Transaction{}, razorpay.Order{}, err
	}

	return transaction, order, nil
}

// Confirm verifies the gateway callback and credits the wallet.
// Idempotent: confirming an already successful topup credits nothing
// and reports success again. Two concurrent confirms race on the
// status guarded update inside one transaction, so the credit is
// applied exactly once.
func (s *TopupService) Confirm(ctx context.Context, userID uuid.UUID, orderID string, paymentID string, signature string, transactionID uuid.UUID) (models.Transaction, error) {
	transaction, err := s.storage.Transaction().GetTransaction(ctx, transactionID)
	if err != nil {
		return transaction, err
	}

	// The callback must match the stored order binding created at
	// Initiate: owner, kind and gateway order id
	switch {
	case transaction.Kind != models.TransactionKindTopup,
		transaction.SenderID == nil || *transaction.SenderID != userID,
		transaction.ExternalRef == nil || *transaction.ExternalRef != orderID:
		return models.Transaction{}, apperrors.ErrTransactionMismatch
	}

	switch transaction.Status {
	case models.TransactionStatusSuccess:
		// Gateway redelivered the callback, nothing left to do
		return transaction, nil
	case models.TransactionStatusFailed:
		return models.Transaction{}, apperrors.ErrTransactionMismatch
	}

	if !s.gateway.VerifyPaymentSignature(orderID, paymentID, signature) {
		if _, err := s.storage.Transaction().FailTopup(ctx, transactionID); err != nil &&
			!errors.Is(err, apperrors.ErrTransactionNotFound) {
			return models.Transaction{}, err
		}
		return models.Transaction{}, apperrors.ErrSignatureInvalid
	}

	// Status transition and balance credit commit together. If a
	// concurrent confirm won the guarded update, treat this call as a
	// duplicate of an already successful one.
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		transaction, err = storage.Transaction().SucceedTopup(ctx, transactionID)
		if err != nil {
			return err
		}

		_, err = storage.Wallet().Credit(ctx, userID, transaction.Amount)
		return err
	})

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		// Lost the race on the pending guard: re-read and report the
		// already committed outcome
		transaction, readErr := s.storage.Transaction().GetTransaction(ctx, transactionID)
		if readErr != nil {
			return models.Transaction{}, readErr
		}
		if transaction.Status == models.TransactionStatusSuccess {
			return transaction, nil
		}
		return models.Transaction{}, apperrors.ErrTransactionMismatch
	default:
		return models.Transaction{}, err
	}
}
