package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds the spendable balance of one user.
// Balance is never negative: the repository enforces it with a guarded
// debit and the database with a CHECK constraint.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time

	// External facing payment alias, e.g. "nina.d41d@wallet"
	// Unique, matched exactly (case sensitive, no normalization)
	UpiID string

	Balance decimal.Decimal
}
