package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/models"
	"github.com/mpetrov/walletd/internal/repository"
)

// TransferService moves funds between two wallets. The debit, the
// credit and the transaction record are committed as one database
// transaction: no reader ever observes a half applied transfer.
type TransferService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TransferService {
	return &TransferService{storage: storage}
}

// Send transfers amount from sender to the receiver addressed by user id.
func (s *TransferService) Send(ctx context.Context, senderID uuid.UUID, receiverID uuid.UUID, amount decimal.Decimal, description *string) (models.Transaction, error) {
	return s.send(ctx, senderID, receiverID, amount, description, nil)
}

// SendByUpi resolves the receiver's payment alias first, then
// transfers. The alias used at request time is recorded on the
// transaction as is.
func (s *TransferService) SendByUpi(ctx context.Context, senderID uuid.UUID, receiverUpi string, amount decimal.Decimal, description *string) (models.Transaction, error) {
	wallet, err := s.storage.Wallet().GetWalletByUpi(ctx, receiverUpi)
	if err != nil {
		return models.Transaction{}, err
	}

	return s.send(ctx, senderID, wallet.UserID, amount, description, &receiverUpi)
}

func (s *TransferService) send(ctx context.Context, senderID uuid.UUID, receiverID uuid.UUID, amount decimal.Decimal, description *string, counterpartyUpi *string) (models.Transaction, error) {
	var transaction models.Transaction

	if !amount.IsPositive() {
		return transaction, apperrors.ErrAmountInvalid
	}

	// Receiver must exist before anything is debited
	if _, err := s.storage.Wallet().GetWallet(ctx, receiverID); err != nil {
		return transaction, err
	}

	if senderID == receiverID {
		return transaction, apperrors.ErrSelfTransfer
	}

	transaction, err := models.NewTransfer(senderID, receiverID, amount, description, counterpartyUpi)
	if err != nil {
		return transaction, err
	}

	// Funds check and both balance mutations commit atomically with
	// the record. The guarded debit serializes concurrent spends of
	// the same wallet, so the balance can not go negative.
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		if _, err := storage.Wallet().Debit(ctx, senderID, amount); err != nil {
			return err
		}

		if _, err := storage.Wallet().Credit(ctx, receiverID, amount); err != nil {
			return err
		}

		_, err := storage.Transaction().CreateTransaction(ctx, transaction)
		return err
	})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transfer failed: %w", err)
	}

	return transaction, nil
}

// ListTransactions returns both legs of the user's history, newest first
func (s *TransferService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.storage.Transaction().ListUserTransactions(ctx, userID)
}

// GetTransaction returns one transaction if the user is a party of it
func (s *TransferService) GetTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error) {
	return s.storage.Transaction().GetUserTransaction(ctx, userID, id)
}
