package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/infra/mailer"
	"ascendancy-backend/internal/infra/metrics"
	"ascendancy-backend/internal/infra/ratelimit"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

const (
	otpTTL       = 10 * time.Minute
	otpDigits    = 6
	requestLimit = 5
	verifyLimit  = 10
	limitWindow  = 15 * time.Minute
)

// RequestMessage is returned for every OTP request, whether or not the
// address belongs to an investor.
const RequestMessage = "If an account exists for this email, a login code has been sent."

var validate = validator.New()

// OTPStore is what the login flow needs from the record store.
type OTPStore interface {
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	store.OTPs
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *users.User `json:"user"`
}

type OTPService struct {
	store    OTPStore
	limiter  ratelimit.Limiter
	mail     mailer.Service
	sessions *Sessions
	log      *zap.Logger
	now      func() time.Time
	cost     int
}

type Option func(*OTPService)

// WithBcryptCost lowers the hashing cost (tests).
func WithBcryptCost(cost int) Option {
	return func(s *OTPService) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *OTPService) { s.now = now }
}

func NewOTPService(st OTPStore, limiter ratelimit.Limiter, mail mailer.Service, sessions *Sessions, log *zap.Logger, opts ...Option) *OTPService {
	s := &OTPService{
		store:    st,
		limiter:  limiter,
		mail:     mail,
		sessions: sessions,
		log:      log,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RequestOTP emails a login code to a known investor. The answer is the
// same for known and unknown addresses; only the rate limit can refuse.
func (s *OTPService) RequestOTP(ctx context.Context, email, clientIP string) (string, error) {
	email = store.NormalizeEmail(email)
	valid := validate.Var(email, "required,email") == nil

	key := "otp:req:" + email
	if !valid {
		key = "otp:req:ip:" + clientIP
	}
	ok, err := s.limiter.Allow(ctx, key, requestLimit, limitWindow)
	if err != nil {
		s.log.Error("rate limiter unavailable", zap.Error(err))
	} else if !ok {
		metrics.OTPRequests.WithLabelValues("rate_limited").Inc()
		return "", apperr.RateLimitedErr()
	}

	if !valid {
		metrics.OTPRequests.WithLabelValues("ignored").Inc()
		return RequestMessage, nil
	}

	if err := s.issue(ctx, email); err != nil {
		s.log.Error("otp issue failed", zap.Error(err))
	}
	return RequestMessage, nil
}

func (s *OTPService) issue(ctx context.Context, email string) error {
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.OTPRequests.WithLabelValues("unknown_email").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	if err := s.store.DeleteUnusedOTPs(ctx, email); err != nil {
		return fmt.Errorf("clear old codes: %w", err)
	}
	if err := s.store.CreateOTP(ctx, &users.OTP{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(otpTTL),
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	err = s.mail.Send(ctx, mailer.Email{
		To:      u.Email,
		Subject: "Your Ascendancy login code",
		TextBody: fmt.Sprintf("Hi %s,\n\nYour login code is %s. It expires in %d minutes.\n\nIf you did not ask for this code you can ignore this email.\n",
			firstName(u.Name), code, int(otpTTL.Minutes())),
	})
	if err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	metrics.OTPRequests.WithLabelValues("sent").Inc()
	s.log.Info("otp sent", zap.Uint("user_id", u.ID))
	return nil
}

// VerifyOTP redeems a code and opens a session. A code works once.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = store.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if validate.Var(email, "required,email") != nil || validate.Var(code, "len=6,numeric") != nil {
		return nil, apperr.ValidationErr("Enter the 6-digit code from your email.", nil)
	}

	ok, err := s.limiter.Allow(ctx, "otp:verify:"+email, verifyLimit, limitWindow)
	if err != nil {
		s.log.Error("rate limiter unavailable", zap.Error(err))
	} else if !ok {
		metrics.OTPRequests.WithLabelValues("verify_rate_limited").Inc()
		return nil, apperr.RateLimitedErr()
	}

	invalid := apperr.AuthErr("Invalid or expired code.", nil)

	now := s.now()
	candidates, err := s.store.ActiveOTPs(ctx, email, now)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	var match *users.OTP
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].CodeHash), []byte(code)) == nil {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		metrics.OTPRequests.WithLabelValues("verify_failed").Inc()
		return nil, invalid
	}

	consumed, err := s.store.MarkOTPUsed(ctx, match.ID, now)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if !consumed {
		metrics.OTPRequests.WithLabelValues("verify_replayed").Inc()
		return nil, invalid
	}

	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, invalid
	}
	token, exp, err := s.sessions.Issue(*u)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	metrics.OTPRequests.WithLabelValues("verified").Inc()
	s.log.Info("otp verified", zap.Uint("user_id", u.ID))
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// PurgeExpired deletes expired and redeemed codes.
func (s *OTPService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeOTPs(ctx, s.now())
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *OTPService) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.log.Error("otp purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("purged otp codes", zap.Int64("count", n))
			}
		}
	}
}

func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
