package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"ascendancy-backend/config"
	"ascendancy-backend/database"
	adminapi "ascendancy-backend/internal/api/admin"
	authapi "ascendancy-backend/internal/api/auth"
	"ascendancy-backend/internal/api/billing"
	"ascendancy-backend/internal/api/paymentwebhook"
	"ascendancy-backend/internal/api/users"
	routes "ascendancy-backend/internal/app/http"
	"ascendancy-backend/internal/app/http/middleware"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/infra/logger"
	"ascendancy-backend/internal/infra/mailer"
	"ascendancy-backend/internal/infra/ratelimit"
	"ascendancy-backend/internal/service/auth"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/store"
)

const (
	otpPurgeInterval   = time.Hour
	limiterSweepWindow = 15 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBURL, zl)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	st := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := newLimiter(ctx, cfg.RedisURL, zl)
	mail := newMailer(cfg, zl)

	gateway := adumo.New(cfg.Adumo, adumo.WithLogger(zl))
	sessions := auth.NewSessions(cfg.SessionSecret)

	intents := payments.NewIntentService(st, gateway,
		payments.CallbackURLs(cfg.Adumo.ReturnURLBase, cfg.Adumo.NotifyURLBase), zl)
	reconciler := payments.NewReconciler(st, gateway, zl)
	subscriptions := payments.NewSubscriptionService(st, gateway, zl)
	otp := auth.NewOTPService(st, limiter, mail, sessions, zl)

	go otp.RunPurger(ctx, otpPurgeInterval)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(zl),
		middleware.Recovery(zl),
	)

	// CORS before routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigin, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Store:    st,
		Sessions: sessions,
		Limiter:  limiter,
		Log:      zl,
		Billing:  billing.NewHandler(intents, reconciler, subscriptions, st, zl),
		Webhooks: paymentwebhook.NewHandler(reconciler, subscriptions, cfg.Adumo.WebhookSecret, cfg.FrontendURL, zl),
		Auth:     authapi.NewHandler(otp),
		Users:    users.NewHandler(st),
		Admin:    adminapi.NewHandler(st),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.String("config", cfg.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLimiter uses Redis when REDIS_URL is set so limits hold across
// instances, and an in-process window otherwise.
func newLimiter(ctx context.Context, redisURL string, zl *zap.Logger) ratelimit.Limiter {
	if redisURL != "" {
		var client *redis.Client
		if opts, err := redis.ParseURL(redisURL); err == nil {
			client = redis.NewClient(opts)
		} else {
			client = ratelimit.NewRedisClient(redisURL)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unreachable at startup", zap.Error(err))
		}
		zl.Info("rate limiting backed by redis")
		return ratelimit.NewRedis(client)
	}

	mem := ratelimit.NewMemory()
	go func() {
		t := time.NewTicker(limiterSweepWindow)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				mem.Sweep(limiterSweepWindow)
			}
		}
	}()
	return mem
}

func newMailer(cfg *config.Config, zl *zap.Logger) mailer.Service {
	if cfg.SMTP.Enabled() {
		return mailer.NewSMTP(cfg.SMTP)
	}
	zl.Warn("SMTP not configured, login codes are logged")
	return mailer.NewLog(zl, !cfg.IsProduction())
}
