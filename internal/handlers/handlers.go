package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/hub"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/middleware"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/payments"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/terminals"
)

type Handler struct {
	storage   *storage.Storage
	cache     cache.Client
	subs      *subscription.Service
	js        nats.JetStreamContext
	hub       *hub.Hub
	auth      *auth.Handler
	webhooks  *payments.WebhookHandler
	terminals *terminals.Handler
	stripe    *payments.StripeClient
	cakto     *payments.CaktoClient
	yampi     *payments.YampiClient
}

func New(
	store *storage.Storage,
	cacheClient cache.Client,
	subs *subscription.Service,
	js nats.JetStreamContext,
	h *hub.Hub,
	authHandler *auth.Handler,
	webhooks *payments.WebhookHandler,
	terminalHandler *terminals.Handler,
	stripe *payments.StripeClient,
	cakto *payments.CaktoClient,
	yampi *payments.YampiClient,
) *Handler {
	return &Handler{
		storage:   store,
		cache:     cacheClient,
		subs:      subs,
		js:        js,
		hub:       h,
		auth:      authHandler,
		webhooks:  webhooks,
		terminals: terminalHandler,
		stripe:    stripe,
		cakto:     cakto,
		yampi:     yampi,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Public
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitLogin(h.cache))
		r.Post("/v1/auth/login", h.auth.Login)
		r.Post("/v1/auth/signup", h.auth.Signup)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitWebhook(h.cache))
		r.Post("/webhooks/stripe", h.webhooks.HandleStripe)
		r.Post("/webhooks/cakto", h.webhooks.HandleCakto)
		r.Post("/webhooks/yampi", h.webhooks.HandleYampi)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitStorefront(h.cache))
		r.Get("/store/{slug}", h.GetStorefront)
		r.Get("/store/{slug}/products", h.GetStorefrontProducts)
		r.Post("/store/{slug}/orders", h.CreateStorefrontOrder)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitEnroll(h.cache))
		r.Post("/v1/terminals/enroll", h.terminals.Enroll)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/healthz", h.Health)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/v1/auth/me", h.auth.Me)
		r.Post("/v1/auth/logout", h.auth.Logout)

		r.Get("/v1/company", h.GetCompany)
		r.Get("/v1/subscription", h.GetSubscription)
		r.Get("/v1/plans", h.ListPlans)
		r.Post("/v1/subscriptions", h.CreateCheckout)

		r.Get("/v1/ws/orders", h.OrdersWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Put("/v1/company", h.UpdateCompany)
			r.Get("/v1/company/users", h.ListCompanyUsers)
			r.Post("/v1/company/users", h.CreateCompanyUser)
			r.Patch("/v1/company/users/{id}/active", h.SetUserActive)
		})

		// Operational surface, blocked once the subscription lapses.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActiveSubscription(h.subs))

			r.Get("/v1/products", h.ListProducts)
			r.Post("/v1/products", h.CreateProduct)
			r.Get("/v1/products/{id}", h.GetProduct)
			r.Put("/v1/products/{id}", h.UpdateProduct)
			r.Delete("/v1/products/{id}", h.DeleteProduct)
			r.Post("/v1/products/{id}/stock", h.AdjustStock)

			r.Get("/v1/categories", h.ListCategories)
			r.Post("/v1/categories", h.CreateCategory)
			r.Delete("/v1/categories/{id}", h.DeleteCategory)

			r.Get("/v1/customers", h.ListCustomers)
			r.Post("/v1/customers", h.CreateCustomer)
			r.Get("/v1/customers/{id}", h.GetCustomer)
			r.Put("/v1/customers/{id}", h.UpdateCustomer)
			r.Delete("/v1/customers/{id}", h.DeleteCustomer)

			r.Get("/v1/orders", h.ListOrders)
			r.Post("/v1/orders", h.CreateOrder)
			r.Get("/v1/orders/summary", h.OrdersSummary)
			r.Get("/v1/orders/{id}", h.GetOrder)
			r.Post("/v1/orders/{id}/status", h.TransitionOrder)
			r.Get("/v1/orders/{id}/barcode", h.OrderBarcode)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))
				r.Get("/v1/terminals", h.terminals.ListTerminals)
				r.Delete("/v1/terminals/{id}", h.terminals.DeleteTerminal)
				r.Post("/v1/terminals/{id}/rotate", h.terminals.RotateCredentials)
				r.Get("/v1/terminals/tokens", h.terminals.ListRegistrationTokens)
				r.Post("/v1/terminals/tokens", h.terminals.CreateRegistrationToken)
				r.Delete("/v1/terminals/tokens/{id}", h.terminals.RevokeRegistrationToken)
			})
		})

		// Platform administration
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleSuperadmin))
			r.Post("/v1/admin/plans", h.CreatePlan)
			r.Patch("/v1/admin/plans/{id}/active", h.SetPlanActive)
			r.Post("/v1/admin/impersonate", h.auth.Impersonate)
		})
	})
}

// Health reports process and database liveness.
// @Summary Health check
// @Tags system
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.storage.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]string{"status": status})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}
