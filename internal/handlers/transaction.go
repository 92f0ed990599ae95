package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/apperrors"
	"github.com/mpetrov/walletd/internal/handlers/render"
	"github.com/mpetrov/walletd/internal/handlers/userctx"
	"github.com/mpetrov/walletd/internal/logger"
	"github.com/mpetrov/walletd/internal/models"
)

type TransactionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	Amount          float64    `json:"amount"`
	SenderID        *uuid.UUID `json:"senderId,omitempty"`
	ReceiverID      *uuid.UUID `json:"receiverId,omitempty"`
	CounterpartyUpi *string    `json:"counterpartyUpi,omitempty"`
	Description     *string    `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func newTransactionResponse(t models.Transaction) TransactionResponse {
	amount, _ := t.Amount.Float64()
	return TransactionResponse{
		ID:              t.ID,
		Kind:            t.Kind,
		Status:          t.Status,
		Amount:          amount,
		SenderID:        t.SenderID,
		ReceiverID:      t.ReceiverID,
		CounterpartyUpi: t.CounterpartyUpi,
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
	}
}

// writeTransferError maps transfer failures to status codes
func writeTransferError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAmountInvalid):
		render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrSelfTransfer):
		render.ServiceError(w, "Cannot send money to yourself", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrBalanceInsufficient):
		render.ServiceError(w, "Insufficient balance", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrWalletNotFound), errors.Is(err, apperrors.ErrUpiNotFound):
		render.ServiceError(w, "Recipient wallet not found", http.StatusNotFound)
	default:
		l.Error("Transfer failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleSend(transfers transferService, l logger.Logger) http.Handler {
	type request struct {
		ReceiverID  uuid.UUID       `json:"receiverId" validate:"required"`
		Amount      decimal.Decimal `json:"amount" validate:"required"`
		Description *string         `json:"description"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		_, err = transfers.Send(r.Context(), user.ID, data.ReceiverID, data.Amount, data.Description)
		if err != nil {
			writeTransferError(w, l, err)
			return
		}

		render.JSON(w, response{Message: "Transaction successful"})
	})
}

func handleSendUpi(transfers transferService, l logger.Logger) http.Handler {
	type request struct {
		ReceiverUpiID string          `json:"receiverUpiId" validate:"required"`
		Amount        decimal.Decimal `json:"amount" validate:"required"`
		Description   *string         `json:"description"`
	}
	type response struct {
		Message       string    `json:"message"`
		TransactionID uuid.UUID `json:"transactionId"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tr, err := transfers.SendByUpi(r.Context(), user.ID, data.ReceiverUpiID, data.Amount, data.Description)
		if err != nil {
			writeTransferError(w, l, err)
			return
		}

		render.JSON(w, response{Message: "Transaction successful", TransactionID: tr.ID})
	})
}

func handleCreateTopupOrder(topups topupService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
	}
	type response struct {
		OrderID       string    `json:"orderId"`
		Amount        int64     `json:"amount"`
		Currency      string    `json:"currency"`
		TransactionID uuid.UUID `json:"transactionId"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tr, order, err := topups.Initiate(r.Context(), user.ID, data.Amount)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTopupAmountTooSmall):
				render.ServiceError(w, "Amount below minimum", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrWalletNotFound):
				render.ServiceError(w, "Wallet not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrGatewayUnavailable):
				l.Error("Payment gateway order failed", "error", err)
				render.ServiceError(w, "Payment gateway unavailable", http.StatusInternalServerError)
			default:
				l.Error("Failed to initiate topup", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		// Amount is in the gateway's minor units, as checkout expects
		render.JSON(w, response{
			OrderID:       order.ID,
			Amount:        order.Amount,
			Currency:      order.Currency,
			TransactionID: tr.ID,
		})
	})
}

func handleVerifyTopupPayment(topups topupService, l logger.Logger) http.Handler {
	type request struct {
		PaymentID     string    `json:"paymentId" validate:"required"`
		OrderID       string    `json:"orderId" validate:"required"`
		Signature     string    `json:"signature" validate:"required"`
		TransactionID uuid.UUID `json:"transactionId" validate:"required"`
	}
	type response struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		_, err = topups.Confirm(r.Context(), user.ID, data.OrderID, data.PaymentID, data.Signature, data.TransactionID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTransactionNotFound):
				render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrTransactionMismatch):
				render.ServiceError(w, "Transaction does not match order", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrSignatureInvalid):
				render.ServiceError(w, "Payment verification failed", http.StatusBadRequest)
			default:
				l.Error("Failed to confirm topup", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Success: true})
	})
}

func handleListTransactions(transfers transferService, l logger.Logger) http.Handler {
	type response struct {
		Transactions []TransactionResponse `json:"transactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		trs, err := transfers.ListTransactions(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list transactions", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if len(trs) == 0 {
			render.ServiceError(w, "No transactions found", http.StatusNotFound)
			return
		}

		transactions := make([]TransactionResponse, 0, len(trs))
		for _, tr := range trs {
			transactions = append(transactions, newTransactionResponse(tr))
		}

		render.JSON(w, response{Transactions: transactions})
	})
}

func handleGetTransaction(transfers transferService, l logger.Logger) http.Handler {
	type response struct {
		Transaction TransactionResponse `json:"transaction"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid transaction id", http.StatusBadRequest)
			return
		}

		tr, err := transfers.GetTransaction(r.Context(), user.ID, id)

		switch {
		case err == nil:
			render.JSON(w, response{Transaction: newTransactionResponse(tr)})
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		default:
			l.Error("Failed to get transaction", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
