package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Role           string

	// Referral ledger state
	// ReferredBy keeps the code the user redeemed; set at most once
	// Referrals must equal the count of referred_users rows owned by the user
	ReferralCode string
	ReferredBy   *string
	Referrals    int
	Points       int
	Earnings     decimal.Decimal
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
