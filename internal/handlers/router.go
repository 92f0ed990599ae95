package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/walletd/internal/gateway/razorpay"
	"github.com/mpetrov/walletd/internal/handlers/middleware"
	"github.com/mpetrov/walletd/internal/logger"
	"github.com/mpetrov/walletd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth authService,
	users userService,
	transfers transferService,
	topups topupService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(auth)

	user := http.NewServeMux()
	user.Handle("POST /signup", handleSignup(auth, logger))
	user.Handle("POST /login", handleLogin(auth, logger))
	user.Handle("POST /refresh", handleTokenRefresh(auth, logger))
	user.Handle("GET /me", withAuth(handleUserMe(users, logger)))
	user.Handle("GET /my-balance", withAuth(handleUserBalance(users, logger)))

	transaction := http.NewServeMux()
	transaction.Handle("POST /send", withAuth(handleSend(transfers, logger)))
	transaction.Handle("POST /send-upi-internal", withAuth(handleSendUpi(transfers, logger)))
	transaction.Handle("POST /create-razorpay-order", withAuth(handleCreateTopupOrder(topups, logger)))
	transaction.Handle("POST /verify-razorpay-payment", withAuth(handleVerifyTopupPayment(topups, logger)))
	transaction.Handle("GET /my-transactions", withAuth(handleListTransactions(transfers, logger)))
	transaction.Handle("GET /my-transactions/{id}", withAuth(handleGetTransaction(transfers, logger)))

	root := http.NewServeMux()
	root.Handle("/user/", http.StripPrefix("/user", user))
	root.Handle("/transaction/", http.StripPrefix("/transaction", transaction))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}

type authService interface {
	// Register user and open their wallet
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, name string, email string, password string) (models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrUserNotFound on bad credentials
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh rotates the token pair using the single-use refresh token
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Auth resolves the request's bearer token to a user
	Auth(ctx context.Context, r *http.Request) (models.User, error)

	SetRefreshCookie(w http.ResponseWriter, pair models.TokenPair)
	ReadRefreshToken(r *http.Request) (string, error)
}

type userService interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
}

type transferService interface {
	Send(ctx context.Context, senderID uuid.UUID, receiverID uuid.UUID, amount decimal.Decimal, description *string) (models.Transaction, error)
	SendByUpi(ctx context.Context, senderID uuid.UUID, receiverUpi string, amount decimal.Decimal, description *string) (models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Transaction, error)
}

type topupService interface {
	Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Transaction, razorpay.Order, error)
	Confirm(ctx context.Context, userID uuid.UUID, orderID string, paymentID string, signature string, transactionID uuid.UUID) (models.Transaction, error)
}
