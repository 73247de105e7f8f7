package models

import "github.com/shopspring/decimal"

// Reward amounts applied by a successful code redemption, returned for
// caller display.
type RedemptionResult struct {
	Code             string
	UserPoints       int
	ReferrerPoints   int
	ReferrerEarnings decimal.Decimal
}

// Referral stats for display. Earnings here is derived as
// points * point value and is not the persisted earnings balance used by
// the withdrawal snapshot.
type ReferralStats struct {
	Code      string
	Referrals int
	Points    int
	Earnings  decimal.Decimal
}
