package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/handlers/render"
	"github.com/connecthq/connect/internal/handlers/userctx"
	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
)

type withdrawalReviewService interface {
	ReviewWithdrawal(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID) (models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status string) ([]models.WithdrawalRequest, error)
}

type AdminHandler struct {
	reviewService withdrawalReviewService
	logger        logger.Logger
}

func NewAdmin(rs withdrawalReviewService, l logger.Logger) *AdminHandler {
	return &AdminHandler{reviewService: rs, logger: l}
}

func (h *AdminHandler) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.WithdrawalStatusPending, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected:
	default:
		render.ServiceError(w, "Unknown withdrawal status", http.StatusBadRequest)
		return
	}

	reqs, err := h.reviewService.ListWithdrawals(r.Context(), status)
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

func (h *AdminHandler) approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.WithdrawalStatusApproved)
}

func (h *AdminHandler) reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.WithdrawalStatusRejected)
}

func (h *AdminHandler) review(w http.ResponseWriter, r *http.Request, decision string) {
	admin, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid withdrawal request id", http.StatusBadRequest)
		return
	}

	req, err := h.reviewService.ReviewWithdrawal(r.Context(), requestID, decision, admin.ID)

	switch {
	case err == nil:
		render.JSON(w, toWithdrawalResponse(req))
	case errors.Is(err, apperrors.ErrWithdrawalNotFound):
		render.ServiceError(w, "Withdrawal request not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrWithdrawalFinalized):
		render.ServiceError(w, "Withdrawal request already finalized", http.StatusConflict)
	default:
		h.logger.Error("Failed to review withdrawal", "error", err, "request_id", requestID)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
