package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/internal/repository"
)

const userColumns = "id, created_at, username, password_hash, role, referral_code, referred_by, referrals, points, earnings"

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, password_hash, role, referral_code)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), params.Username, params.HashedPassword, role, params.ReferralCode)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: getUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByUsername = `-- name: getUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const getUserByReferralCode = `-- name: getUserByReferralCode
SELECT ` + userColumns + ` FROM users
WHERE referral_code = $1
`

func (r *UserRepo) GetUserByReferralCode(ctx context.Context, code string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByReferralCode, code)
	user, err := collectUser(rows)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return user, apperrors.ErrCodeNotFound
	}
	return user, err
}

// Set redeemed code and reward points in one conditional statement
// The 'referred_by IS NULL' guard makes redemption a single allowed
// transition: a retry of the same redemption updates zero rows
const setReferredBy = `-- name: setReferredBy
UPDATE users
SET referred_by = $2, points = points + $3
WHERE id = $1 AND referred_by IS NULL
RETURNING ` + userColumns

func (r *UserRepo) SetReferredBy(ctx context.Context, userID uuid.UUID, code string, rewardPoints int) (models.User, error) {
	rows, _ := r.DB.Query(ctx, setReferredBy, userID, code, rewardPoints)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Zero rows means the guard blocked the update or there is no such user
		_, getErr := r.GetUserByID(ctx, userID)
		if getErr != nil {
			return user, getErr
		}
		return user, apperrors.ErrCodeAlreadyRedeemed
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const addReferredUser = `-- name: addReferredUser
INSERT INTO referred_users (referrer_id, referred_id)
VALUES ($1, $2)
`

const applyReferrerReward = `-- name: applyReferrerReward
UPDATE users
SET referrals = referrals + 1, points = points + $2, earnings = earnings + $3
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) ApplyReferrerReward(ctx context.Context, referrerID uuid.UUID, referredID uuid.UUID, points int, earnings decimal.Decimal) (models.User, error) {
	var user models.User

	// The set membership insert is the at-most-once guard for the
	// referrer side: a second application of the same redemption hits
	// the primary key and nothing is incremented
	_, err := r.DB.Exec(ctx, addReferredUser, referrerID, referredID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrCodeAlreadyRedeemed
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	rows, _ := r.DB.Query(ctx, applyReferrerReward, referrerID, points, earnings)
	user, err = pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const countReferred = `-- name: countReferred
SELECT count(*) FROM referred_users
WHERE referrer_id = $1
`

func (r *UserRepo) CountReferred(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, countReferred, referrerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// Snapshot balances and zero them in a single statement: the row lock
// taken by UPDATE serializes concurrent redemptions and withdrawals for
// the same user, so no second caller may capture the same balance
const snapshotAndResetBalances = `-- name: snapshotAndResetBalances
UPDATE users u
SET points = 0, earnings = 0
FROM (SELECT id, points, earnings FROM users WHERE id = $1 FOR UPDATE) prev
WHERE u.id = prev.id AND prev.points >= $2
RETURNING prev.points, prev.earnings
`

func (r *UserRepo) SnapshotAndResetBalances(ctx context.Context, userID uuid.UUID, minPoints int) (int, decimal.Decimal, error) {
	var points int
	var earnings decimal.Decimal

	err := r.DB.QueryRow(ctx, snapshotAndResetBalances, userID, minPoints).Scan(&points, &earnings)

	switch {
	case err == nil:
		return points, earnings, nil
	case errors.Is(err, pgx.ErrNoRows):
		_, getErr := r.GetUserByID(ctx, userID)
		if getErr != nil {
			return 0, decimal.Zero, getErr
		}
		return 0, decimal.Zero, apperrors.ErrPointsInsufficient
	default:
		return 0, decimal.Zero, fmt.Errorf("db error: %w", err)
	}
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword, &u.Role, &u.ReferralCode, &u.ReferredBy, &u.Referrals, &u.Points, &u.Earnings)
	return u, err
}
