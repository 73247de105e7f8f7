package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/handlers/middleware"
	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
)

// Fakes shared by handler tests. Function fields allow per-test behavior,
// nil field means the method must not be called.

type fakeAuthService struct {
	registerFn func(ctx context.Context, username string, password string) (models.TokenPair, error)
	loginFn    func(ctx context.Context, username string, password string) (models.TokenPair, error)
	refreshFn  func(ctx context.Context, refresh string) (models.TokenPair, error)
}

func (f *fakeAuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	return f.registerFn(ctx, username, password)
}

func (f *fakeAuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	return f.loginFn(ctx, username, password)
}

func (f *fakeAuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	return f.refreshFn(ctx, refresh)
}

func (f *fakeAuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set("Authorization", "Bearer "+pair.Access.Value)
}

func (f *fakeAuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

type fakeReferralService struct {
	redeemFn        func(ctx context.Context, userID uuid.UUID, code string) (models.RedemptionResult, error)
	withdrawFn      func(ctx context.Context, userID uuid.UUID, accountNumber string, bankName string) (models.WithdrawalRequest, error)
	statsFn         func(ctx context.Context, userID uuid.UUID) (models.ReferralStats, error)
	listFn          func(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
	reviewFn        func(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID) (models.WithdrawalRequest, error)
	listForReviewFn func(ctx context.Context, status string) ([]models.WithdrawalRequest, error)
}

func (f *fakeReferralService) RedeemCode(ctx context.Context, userID uuid.UUID, code string) (models.RedemptionResult, error) {
	return f.redeemFn(ctx, userID, code)
}

func (f *fakeReferralService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, accountNumber string, bankName string) (models.WithdrawalRequest, error) {
	return f.withdrawFn(ctx, userID, accountNumber, bankName)
}

func (f *fakeReferralService) Stats(ctx context.Context, userID uuid.UUID) (models.ReferralStats, error) {
	return f.statsFn(ctx, userID)
}

func (f *fakeReferralService) ListUserWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return f.listFn(ctx, userID)
}

func (f *fakeReferralService) ReviewWithdrawal(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID) (models.WithdrawalRequest, error) {
	return f.reviewFn(ctx, requestID, decision, reviewerID)
}

func (f *fakeReferralService) ListWithdrawals(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	return f.listForReviewFn(ctx, status)
}

type notificationsFunc func(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

func (f notificationsFunc) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return f(ctx, userID)
}

// Request auth service that always returns the given user or error
type requestAuthFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f requestAuthFunc) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

func authAs(user models.User, err error) *middleware.Auth {
	return middleware.NewAuth(requestAuthFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
		return user, err
	}))
}

func newTestRouter(user models.User, authErr error, auth *fakeAuthService, referral *fakeReferralService) http.Handler {
	l := logger.NewNoOpLogger()

	noNotifications := notificationsFunc(func(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
		return nil, nil
	})

	return NewRouter(
		NewAuth(auth, l),
		NewReferral(referral, noNotifications, l),
		NewAdmin(referral, l),
		authAs(user, authErr),
	)
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func requireJSONField(t *testing.T, resp *http.Response, field string, want string) {
	t.Helper()

	var data map[string]any
	err := json.NewDecoder(resp.Body).Decode(&data)
	require.NoError(t, err, "response should be valid json")
	require.Equal(t, want, data[field])
}

func TestRouter(t *testing.T) {
	user := models.User{ID: uuid.New(), Username: "regular", Role: models.RoleUser, ReferralCode: "USR111"}
	admin := models.User{ID: uuid.New(), Username: "boss", Role: models.RoleAdmin, ReferralCode: "ADM111"}

	t.Run("unauthenticated routes reachable", func(t *testing.T) {
		auth := &fakeAuthService{
			registerFn: func(ctx context.Context, username string, password string) (models.TokenPair, error) {
				return models.TokenPair{Access: models.IssuedToken{Value: "access"}}, nil
			},
		}
		router := newTestRouter(models.User{}, errors.New("no token"), auth, &fakeReferralService{})
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/api/user/register", "application/json", jsonBody(`{"login": "newuser", "password": "strongpassword"}`))
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("protected route requires auth", func(t *testing.T) {
		router := newTestRouter(models.User{}, errors.New("no token"), &fakeAuthService{}, &fakeReferralService{})
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/user/me")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me returns context user", func(t *testing.T) {
		router := newTestRouter(user, nil, &fakeAuthService{}, &fakeReferralService{})
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/user/me")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		requireJSONField(t, resp, "username", "regular")
	})

	t.Run("admin routes forbidden for regular user", func(t *testing.T) {
		router := newTestRouter(user, nil, &fakeAuthService{}, &fakeReferralService{})
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/admin/withdrawals")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin routes pass for admin", func(t *testing.T) {
		referral := &fakeReferralService{
			listForReviewFn: func(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
				return nil, nil
			},
		}
		router := newTestRouter(admin, nil, &fakeAuthService{}, referral)
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/admin/withdrawals")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		router := newTestRouter(user, nil, &fakeAuthService{}, &fakeReferralService{})
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/user/unknown")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
