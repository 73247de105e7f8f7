package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Withdrawal request created by a user to cash out the earnings/points
// balance. Amount and Points are snapshots taken at request time; the
// user balances are zeroed in the same transaction. Status transitions
// pending -> approved | rejected exactly once and the request is never
// deleted afterwards.
type WithdrawalRequest struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountNumber string
	BankName      string
	Amount        decimal.Decimal
	Points        int
	Status        string
	CreatedAt     time.Time
	ReviewedBy    *uuid.UUID // nil until reviewed
	ReviewedAt    *time.Time
}
