package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrTokenMissing = errors.New("bearer token missing")
	ErrTokenInvalid = errors.New("bearer token invalid")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrWalletNotFound = errors.New("wallet not found")
	ErrUpiNotFound    = errors.New("upi id not registered")

	ErrAmountInvalid       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("sender and receiver are the same")
	ErrBalanceInsufficient = errors.New("insufficient balance")

	ErrTransactionNotFound = errors.New("transaction not found")

	ErrTopupAmountTooSmall = errors.New("topup amount below minimum")
	ErrTransactionMismatch = errors.New("transaction does not match topup order")
	ErrSignatureInvalid    = errors.New("payment signature verification failed")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)
