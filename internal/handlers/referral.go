package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/handlers/render"
	"github.com/connecthq/connect/internal/handlers/userctx"
	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
)

type referralService interface {
	RedeemCode(ctx context.Context, userID uuid.UUID, code string) (models.RedemptionResult, error)
	RequestWithdrawal(ctx context.Context, userID uuid.UUID, accountNumber string, bankName string) (models.WithdrawalRequest, error)
	Stats(ctx context.Context, userID uuid.UUID) (models.ReferralStats, error)
	ListUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
}

type notificationLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
}

type ReferralHandler struct {
	referralService referralService
	notifications   notificationLister
	logger          logger.Logger
}

func NewReferral(rs referralService, nl notificationLister, l logger.Logger) *ReferralHandler {
	return &ReferralHandler{referralService: rs, notifications: nl, logger: l}
}

type withdrawalResponse struct {
	ID            uuid.UUID  `json:"id"`
	AccountNumber string     `json:"account_number"`
	BankName      string     `json:"bank_name"`
	Amount        float64    `json:"amount"`
	Points        int        `json:"points"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
}

func toWithdrawalResponse(req models.WithdrawalRequest) withdrawalResponse {
	amount, _ := req.Amount.Float64()
	return withdrawalResponse{
		ID:            req.ID,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		Amount:        amount,
		Points:        req.Points,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		ReviewedAt:    req.ReviewedAt,
	}
}

func (h *ReferralHandler) useCode(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Code string `json:"code" validate:"required"`
	}
	type response struct {
		Code           string `json:"code"`
		PointsAwarded  int    `json:"points_awarded"`
		ReferrerPoints int    `json:"referrer_points"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	result, err := h.referralService.RedeemCode(r.Context(), user.ID, data.Code)

	switch {
	case err == nil:
		render.JSON(w, response{
			Code:           result.Code,
			PointsAwarded:  result.UserPoints,
			ReferrerPoints: result.ReferrerPoints,
		})
	case errors.Is(err, apperrors.ErrCodeAlreadyRedeemed):
		render.ServiceError(w, "Referral code already redeemed", http.StatusConflict)
	case errors.Is(err, apperrors.ErrSelfReferral):
		render.ServiceError(w, "Own referral code can not be redeemed", http.StatusConflict)
	case errors.Is(err, apperrors.ErrCodeNotFound):
		render.ServiceError(w, "Referral code not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to redeem referral code", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *ReferralHandler) stats(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Code      string  `json:"code"`
		Referrals int     `json:"referrals"`
		Points    int     `json:"points"`
		Earnings  float64 `json:"earnings"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	stats, err := h.referralService.Stats(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to get referral stats", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	earnings, _ := stats.Earnings.Float64()
	render.JSON(w, response{
		Code:      stats.Code,
		Referrals: stats.Referrals,
		Points:    stats.Points,
		Earnings:  earnings,
	})
}

func (h *ReferralHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	type request struct {
		AccountNumber string `json:"account_number" validate:"required"`
		BankName      string `json:"bank_name" validate:"required"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	req, err := h.referralService.RequestWithdrawal(r.Context(), user.ID, data.AccountNumber, data.BankName)

	switch {
	case err == nil:
		render.JSONWithStatus(w, toWithdrawalResponse(req), http.StatusCreated)
	case errors.Is(err, apperrors.ErrPointsInsufficient):
		render.ServiceError(w, "Insufficient points for withdrawal", http.StatusPaymentRequired)
	default:
		h.logger.Error("Failed to create withdrawal request", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *ReferralHandler) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	reqs, err := h.referralService.ListUserWithdrawals(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list withdrawals", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	withdrawals := make([]withdrawalResponse, 0, len(reqs))
	for _, req := range reqs {
		withdrawals = append(withdrawals, toWithdrawalResponse(req))
	}
	render.JSON(w, withdrawals)
}

func (h *ReferralHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	type notification struct {
		ID        uuid.UUID `json:"id"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		Kind      string    `json:"kind"`
		CreatedAt time.Time `json:"created_at"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	list, err := h.notifications.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list notifications", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	notifications := make([]notification, 0, len(list))
	for _, n := range list {
		notifications = append(notifications, notification{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Kind:      n.Kind,
			CreatedAt: n.CreatedAt,
		})
	}
	render.JSON(w, notifications)
}
