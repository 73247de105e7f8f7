package referral

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/internal/repository"
)

// Reward constants
const (
	// Points granted to the redeemer of a code
	UserPoints = 3

	// Points granted to the code owner per redemption
	ReferrerPoints = 5

	// Minimum points balance to request a withdrawal
	MinWithdrawalPoints = 200

	// Currency units per point, used by Stats for display only
	PointValue = 5
)

// Earnings granted to the code owner per redemption
var ReferrerEarnings = decimal.NewFromInt(100)

// Fire-and-forget notification emitter
type notifier interface {
	Notify(userID uuid.UUID, title string, message string, kind string)
}

type ReferralService struct {
	storage  repository.Storage
	notifier notifier
}

func NewService(storage repository.Storage, notifier notifier) *ReferralService {
	return &ReferralService{
		storage:  storage,
		notifier: notifier,
	}
}

// Redeem referral code for the user
// Both ledger sides (redeemer reward and referrer reward) are applied in
// one transaction; the notification to the referrer is best-effort and
// can't roll back the applied rewards
func (s *ReferralService) RedeemCode(ctx context.Context, userID uuid.UUID, code string) (models.RedemptionResult, error) {
	var result models.RedemptionResult

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return result, err
	}
	if user.ReferredBy != nil {
		return result, apperrors.ErrCodeAlreadyRedeemed
	}

	referrer, err := s.storage.User().GetUserByReferralCode(ctx, code)
	if err != nil {
		return result, err
	}
	if referrer.ID == userID {
		return result, apperrors.ErrSelfReferral
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		// Conditional update is the authoritative guard against a
		// concurrent redemption of another code by the same user
		if _, err := storage.User().SetReferredBy(ctx, userID, code, UserPoints); err != nil {
			return err
		}

		_, err := storage.User().ApplyReferrerReward(ctx, referrer.ID, userID, ReferrerPoints, ReferrerEarnings)
		return err
	})
	if err != nil {
		return result, err
	}

	s.notifier.Notify(
		referrer.ID,
		"You have a new referral",
		fmt.Sprintf("%s joined Connect with your code %s", user.Username, code),
		models.NotificationKindReferral,
	)

	return models.RedemptionResult{
		Code:             code,
		UserPoints:       UserPoints,
		ReferrerPoints:   ReferrerPoints,
		ReferrerEarnings: ReferrerEarnings,
	}, nil
}

// Create withdrawal request snapshotting current balances and zero them
// Snapshot and reset run in one transaction so two requests can't
// capture the same balance
func (s *ReferralService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, accountNumber string, bankName string) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		points, earnings, err := storage.User().SnapshotAndResetBalances(ctx, userID, MinWithdrawalPoints)
		if err != nil {
			return err
		}

		req, err = storage.Withdrawal().Create(ctx, models.WithdrawalRequest{
			UserID:        userID,
			AccountNumber: accountNumber,
			BankName:      bankName,
			Amount:        earnings,
			Points:        points,
			Status:        models.WithdrawalStatusPending,
		})
		return err
	})
	if err != nil {
		return req, err
	}

	return req, nil
}

// Record the admin decision on a pending request
// Balances are not touched here: funds were deducted at request time
func (s *ReferralService) ReviewWithdrawal(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID) (models.WithdrawalRequest, error) {
	if decision != models.WithdrawalStatusApproved && decision != models.WithdrawalStatusRejected {
		return models.WithdrawalRequest{}, apperrors.ErrWithdrawalBadDecision
	}

	req, err := s.storage.Withdrawal().Finalize(ctx, requestID, decision, reviewerID)
	if err != nil {
		return req, err
	}

	s.notifier.Notify(
		req.UserID,
		fmt.Sprintf("Withdrawal request %s", decision),
		fmt.Sprintf("Your withdrawal request for %s has been %s", req.Amount.StringFixed(2), decision),
		models.NotificationKindWithdrawal,
	)

	return req, nil
}

// Referral stats for display
// Earnings here is recomputed as points * point value and intentionally
// differs from the persisted earnings balance used by withdrawal
// snapshots: the product exposes both notions and they must not be merged
func (s *ReferralService) Stats(ctx context.Context, userID uuid.UUID) (models.ReferralStats, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.ReferralStats{}, err
	}

	return models.ReferralStats{
		Code:      user.ReferralCode,
		Referrals: user.Referrals,
		Points:    user.Points,
		Earnings:  decimal.NewFromInt(int64(user.Points) * PointValue),
	}, nil
}

// List user's own withdrawal requests, newest first
func (s *ReferralService) ListUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().ListByUser(ctx, userID)
}

// List withdrawal requests for admin review, newest first
func (s *ReferralService) ListWithdrawals(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().List(ctx, repository.ListWithdrawalsOpts{Status: status})
}
