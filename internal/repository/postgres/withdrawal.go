package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/internal/repository"
)

const withdrawalColumns = "id, user_id, account_number, bank_name, amount, points, status, created_at, reviewed_by, reviewed_at"

type WithdrawalRepo struct {
	DB DBTX
}

const createWithdrawal = `-- name: CreateWithdrawal
INSERT INTO withdrawal_requests (id, user_id, account_number, bank_name, amount, points, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + withdrawalColumns

func (r *WithdrawalRepo) Create(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = models.WithdrawalStatusPending
	}

	rows, _ := r.DB.Query(ctx, createWithdrawal, req.ID, req.UserID, req.AccountNumber, req.BankName, req.Amount, req.Points, req.Status, req.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToWithdrawal)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getWithdrawal = `-- name: GetWithdrawal
SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
WHERE id = $1
`

func (r *WithdrawalRepo) Get(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, getWithdrawal, id)
	req, err := pgx.CollectOneRow(rows, rowToWithdrawal)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		return req, apperrors.ErrWithdrawalNotFound
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

const listWithdrawalsByUser = `-- name: ListWithdrawalsByUser
SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *WithdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, listWithdrawalsByUser, userID)
	reqs, err := pgx.CollectRows(rows, rowToWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reqs, nil
}

// Empty status filter matches everything
const listWithdrawals = `-- name: ListWithdrawals
SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
`

func (r *WithdrawalRepo) List(ctx context.Context, opts repository.ListWithdrawalsOpts) ([]models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, listWithdrawals, opts.Status)
	reqs, err := pgx.CollectRows(rows, rowToWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reqs, nil
}

// Finalize in one conditional statement: the status guard makes the
// transition terminal, a repeated review updates zero rows
const finalizeWithdrawal = `-- name: FinalizeWithdrawal
UPDATE withdrawal_requests
SET status = $2, reviewed_by = $3, reviewed_at = $4
WHERE id = $1 AND status = 'pending'
RETURNING ` + withdrawalColumns

func (r *WithdrawalRepo) Finalize(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID) (models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, finalizeWithdrawal, id, status, reviewerID, time.Now())
	req, err := pgx.CollectOneRow(rows, rowToWithdrawal)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Zero rows: request missing or already reviewed
		stored, getErr := r.Get(ctx, id)
		if getErr != nil {
			return req, getErr
		}
		return stored, apperrors.ErrWithdrawalFinalized
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

func rowToWithdrawal(row pgx.CollectableRow) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.AccountNumber, &w.BankName, &w.Amount, &w.Points, &w.Status, &w.CreatedAt, &w.ReviewedBy, &w.ReviewedAt)
	return w, err
}
