package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	adminapi "ascendancy-backend/internal/api/admin"
	authapi "ascendancy-backend/internal/api/auth"
	"ascendancy-backend/internal/api/billing"
	"ascendancy-backend/internal/api/paymentwebhook"
	"ascendancy-backend/internal/api/plans"
	"ascendancy-backend/internal/api/users"
	"ascendancy-backend/internal/app/http/middleware"
	"ascendancy-backend/internal/domain/access"
	"ascendancy-backend/internal/infra/ratelimit"
	"ascendancy-backend/internal/service/auth"
	"ascendancy-backend/internal/store"
)

// Deps is everything the router needs, built once in main.
type Deps struct {
	Store    store.Store
	Sessions *auth.Sessions
	Limiter  ratelimit.Limiter
	Log      *zap.Logger

	Billing  *billing.Handler
	Webhooks *paymentwebhook.Handler
	Auth     *authapi.Handler
	Users    *users.Handler
	Admin    *adminapi.Handler
}

const (
	publicLimit  = 30
	publicWindow = time.Minute
)

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway callbacks read the raw body, so they sit outside the sanitizer.
	r.GET("/payment-return", d.Webhooks.PaymentReturn)
	r.POST("/payment-return", d.Webhooks.PaymentReturn)
	r.POST("/api/payment-webhook", d.Webhooks.PaymentWebhook)
	r.POST("/api/subscription-webhook", d.Webhooks.SubscriptionWebhook)

	api := r.Group("/api")
	api.GET("/tiers", plans.ListTiers)

	public := api.Group("/")
	public.Use(
		middleware.RateLimit(d.Limiter, "public", publicLimit, publicWindow, d.Log),
		middleware.SanitizeAndCleanInputMiddleware(),
	)
	public.POST("/create-payment-intent", d.Billing.CreateIntent)
	public.POST("/verify-payment", d.Billing.VerifyPayment)
	public.POST("/adumo/create-subscription-from-payment", d.Billing.CreateSubscriptionFromPayment)
	public.POST("/auth/request-otp", d.Auth.RequestOTP)
	public.POST("/auth/verify-otp", d.Auth.VerifyOTP)

	// Authenticated
	authed := api.Group("/")
	authed.Use(middleware.AuthMiddleware(d.Sessions))
	authed.GET("/auth/me", d.Users.GetCurrentUser)
	authed.GET("/payments", d.Billing.GetPaymentHistory)
	authed.GET("/payments/:ref", d.Billing.GetPaymentStatus)
	authed.GET("/user/progress", d.Users.GetProgress)
	authed.PUT("/user/progress", middleware.SanitizeAndCleanInputMiddleware(), d.Users.PutProgress)
	authed.POST("/adumo/tokenize-card", d.Billing.TokenizeCard)

	// Investors with a cleared payment
	invested := authed.Group("/")
	invested.Use(middleware.RequireCapability(d.Store, access.CapDashboard))
	invested.GET("/dashboard", d.Users.Dashboard)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.Sessions), middleware.RequireRole("admin"))
	admin.GET("/users", d.Admin.ListAllUsers)
	admin.GET("/user/:id", d.Admin.GetUserDetails)
	admin.GET("/payments", d.Admin.ListAllPayments)
	admin.GET("/subscriptions", d.Admin.ListAllSubscriptions)
}
