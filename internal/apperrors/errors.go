package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrCodeAlreadyRedeemed = errors.New("referral code already redeemed by this user")
	ErrCodeNotFound        = errors.New("referral code not found")
	ErrSelfReferral        = errors.New("own referral code can not be redeemed")

	ErrPointsInsufficient    = errors.New("insufficient points for withdrawal")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")
	ErrWithdrawalFinalized   = errors.New("withdrawal request already finalized")
	ErrWithdrawalBadDecision = errors.New("unknown withdrawal decision")
)
