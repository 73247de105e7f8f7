package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthq/connect/internal/apperrors"
	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/models"
)

func TestAuthHandler_Register(t *testing.T) {
	t.Run("register ok", func(t *testing.T) {
		service := &fakeAuthService{
			registerFn: func(ctx context.Context, username string, password string) (models.TokenPair, error) {
				require.Equal(t, "newuser", username)
				require.Equal(t, "strongpassword", password)
				return models.TokenPair{Access: models.IssuedToken{Value: "access-token"}}, nil
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/register", jsonBody(`{"login": "newuser", "password": "strongpassword"}`))
		h.register(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Bearer access-token", resp.Header.Get("Authorization"), "tokens should be set to response")
	})

	t.Run("register existing user", func(t *testing.T) {
		service := &fakeAuthService{
			registerFn: func(ctx context.Context, username string, password string) (models.TokenPair, error) {
				return models.TokenPair{}, apperrors.ErrUserAlreadyExists
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/register", jsonBody(`{"login": "newuser", "password": "strongpassword"}`))
		h.register(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("register short password", func(t *testing.T) {
		h := NewAuth(&fakeAuthService{}, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/register", jsonBody(`{"login": "newuser", "password": "short"}`))
		h.register(w, r)

		resp := w.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "validation_failed")
		assert.Contains(t, string(body), "password")
	})

	t.Run("register malformed json", func(t *testing.T) {
		h := NewAuth(&fakeAuthService{}, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/register", jsonBody(`{"login": `))
		h.register(w, r)

		resp := w.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "decoding_failed")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("login ok", func(t *testing.T) {
		service := &fakeAuthService{
			loginFn: func(ctx context.Context, username string, password string) (models.TokenPair, error) {
				return models.TokenPair{Access: models.IssuedToken{Value: "access-token"}}, nil
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/login", jsonBody(`{"login": "newuser", "password": "strongpassword"}`))
		h.login(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Bearer access-token", resp.Header.Get("Authorization"))
	})

	t.Run("login bad credentials", func(t *testing.T) {
		service := &fakeAuthService{
			loginFn: func(ctx context.Context, username string, password string) (models.TokenPair, error) {
				return models.TokenPair{}, apperrors.ErrUserNotFound
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/login", jsonBody(`{"login": "newuser", "password": "wrong"}`))
		h.login(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("refresh ok", func(t *testing.T) {
		service := &fakeAuthService{
			refreshFn: func(ctx context.Context, refresh string) (models.TokenPair, error) {
				require.Equal(t, "refresh-token-string", refresh)
				return models.TokenPair{Access: models.IssuedToken{Value: "rotated-access"}}, nil
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh-token-string"})
		h.refresh(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Bearer rotated-access", resp.Header.Get("Authorization"))
	})

	t.Run("refresh without cookie", func(t *testing.T) {
		h := NewAuth(&fakeAuthService{}, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		h.refresh(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh expired token", func(t *testing.T) {
		service := &fakeAuthService{
			refreshFn: func(ctx context.Context, refresh string) (models.TokenPair, error) {
				return models.TokenPair{}, errors.New("token expired")
			},
		}
		h := NewAuth(service, logger.NewNoOpLogger())

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stale"})
		h.refresh(w, r)

		resp := w.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
