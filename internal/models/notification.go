package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationKindReferral   = "referral"
	NotificationKindWithdrawal = "withdrawal"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Message   string
	Kind      string
	CreatedAt time.Time
}
