package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/connecthq/connect/internal/models"
)

type CreateUserParams struct {
	Username       string
	HashedPassword string
	Role           string // defaults to models.RoleUser if empty
	ReferralCode   string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username or referral code exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id, username or referral code
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (models.User, error)

	// Set user's redeemed code and add the redeemer reward points
	// Both happen in a single conditional statement: no rows are updated
	// if referred_by is set already, so a retry can't apply the reward twice
	// Must return apperrors.ErrCodeAlreadyRedeemed if referred_by is set
	SetReferredBy(ctx context.Context, userID uuid.UUID, code string, rewardPoints int) (models.User, error)

	// Increment the referrer's counters and record the referred user in
	// the referred_users set. Callers must run it in the same transaction
	// as SetReferredBy so both sides apply or neither
	ApplyReferrerReward(ctx context.Context, referrerID uuid.UUID, referredID uuid.UUID, points int, earnings decimal.Decimal) (models.User, error)

	// Count rows in the referred_users set owned by the user
	CountReferred(ctx context.Context, referrerID uuid.UUID) (int, error)

	// Zero user's points and earnings and return values held before the update
	// Must return apperrors.ErrPointsInsufficient if points < minPoints
	SnapshotAndResetBalances(ctx context.Context, userID uuid.UUID, minPoints int) (points int, earnings decimal.Decimal, err error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists even if it used or expired
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used
	// If the token is already used, must not overwrite the existing 'usedAt'
	// and has to return apperrors.ErrRefreshTokenIsUsed
	MarkUsed(ctx context.Context, tokenString string) (usedAt time.Time, err error)
}

type ListWithdrawalsOpts struct {
	// Filter by status if not empty
	Status string
}

// Withdrawal request repository interface
type WithdrawalRepo interface {
	// Create request with status 'pending'
	Create(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error)

	// Get request by id
	// If request not found must return apperrors.ErrWithdrawalNotFound
	Get(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)

	// List user's requests ordered by created_at descending
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)

	// List all requests ordered by created_at descending
	List(ctx context.Context, opts ListWithdrawalsOpts) ([]models.WithdrawalRequest, error)

	// Set terminal status on a pending request
	// Must be applied once only: if status left 'pending' already has to
	// return apperrors.ErrWithdrawalFinalized and keep the stored outcome
	Finalize(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID) (models.WithdrawalRequest, error)
}

// Notification repository interface
type NotificationRepo interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)

	// List user's notifications ordered by created_at descending
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
}

// Storage aggregates all repositories over single db connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Withdrawal() WithdrawalRepo
	Notification() NotificationRepo

	// Run fn within db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
