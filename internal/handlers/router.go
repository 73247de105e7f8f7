package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/connecthq/connect/internal/handlers/middleware"
	"github.com/connecthq/connect/internal/handlers/render"
	"github.com/connecthq/connect/internal/handlers/userctx"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth *AuthHandler,
	referral *ReferralHandler,
	admin *AdminHandler,
	authMiddleware *middleware.Auth,
	mds ...func(next http.Handler) http.Handler,
) http.Handler {
	withAuth := authMiddleware.Auth

	apiuser := http.NewServeMux()

	apiuser.HandleFunc("POST /register", auth.register)
	apiuser.HandleFunc("POST /login", auth.login)
	apiuser.HandleFunc("POST /refresh", auth.refresh)

	apiuser.Handle("GET /me", withAuth(handleUserMe()))
	apiuser.Handle("POST /referrals/use-code", withAuth(http.HandlerFunc(referral.useCode)))
	apiuser.Handle("GET /referrals/stats", withAuth(http.HandlerFunc(referral.stats)))
	apiuser.Handle("POST /referrals/withdraw", withAuth(http.HandlerFunc(referral.withdraw)))
	apiuser.Handle("GET /withdrawals", withAuth(http.HandlerFunc(referral.listWithdrawals)))
	apiuser.Handle("GET /notifications", withAuth(http.HandlerFunc(referral.listNotifications)))

	apiadmin := http.NewServeMux()
	apiadmin.HandleFunc("GET /withdrawals", admin.listWithdrawals)
	apiadmin.HandleFunc("POST /withdrawals/{id}/approve", admin.approve)
	apiadmin.HandleFunc("POST /withdrawals/{id}/reject", admin.reject)

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", withAuth(authMiddleware.RequireAdmin(apiadmin))))

	return chain(root, mds...)
}

func handleUserMe() http.Handler {
	type response struct {
		ID           uuid.UUID `json:"id"`
		Username     string    `json:"username"`
		Role         string    `json:"role"`
		ReferralCode string    `json:"referral_code"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{
			ID:           user.ID,
			Username:     user.Username,
			Role:         user.Role,
			ReferralCode: user.ReferralCode,
		})
	})
}
