package middleware

import (
	"net/http"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
)

// RequireActiveSubscription blocks tenant business routes once the company's
// subscription expired. Superadmins bypass the check so support can inspect
// expired accounts.
func RequireActiveSubscription(subs *subscription.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Role == models.RoleSuperadmin {
				next.ServeHTTP(w, r)
				return
			}

			state, err := subs.GetState(r.Context(), claims.CompanyID)
			if err != nil {
				http.Error(w, "Failed to check subscription", http.StatusInternalServerError)
				return
			}
			if !state.HasAccess {
				http.Error(w, "Subscription expired", http.StatusPaymentRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
