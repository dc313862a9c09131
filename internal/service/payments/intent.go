package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/plans"
	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/infra/metrics"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

var validate = validator.New()

// FormBuilder assembles the hosted payment form for one payment.
type FormBuilder interface {
	BuildVirtualForm(p adumo.FormPayment, urls adumo.ReturnURLs) (adumo.VirtualForm, error)
}

type IntentRequest struct {
	Tier   string
	Method string
	// Amount is optional. When sent it must equal the server-side price.
	Amount int64
	Name   string
	Email  string
	Phone  string
}

type IntentResponse struct {
	URL               string            `json:"url"`
	FormFields        map[string]string `json:"formFields"`
	MerchantReference string            `json:"merchantReference"`
	Amount            int64             `json:"amount"`
	Method            billing.Method    `json:"paymentMethod"`
	Tier              string            `json:"tier"`
}

// CallbackURLs derives the gateway redirect and notification URLs.
func CallbackURLs(returnBase, notifyBase string) adumo.ReturnURLs {
	returnBase = strings.TrimRight(returnBase, "/")
	notifyBase = strings.TrimRight(notifyBase, "/")
	return adumo.ReturnURLs{
		Success: returnBase + "/payment-return",
		Failed:  returnBase + "/payment-return",
		Notify:  notifyBase + "/api/payment-webhook",
	}
}

type IntentService struct {
	store  store.Store
	forms  FormBuilder
	urls   adumo.ReturnURLs
	log    *zap.Logger
	now    func() time.Time
	newRef func() string
}

func NewIntentService(s store.Store, forms FormBuilder, urls adumo.ReturnURLs, log *zap.Logger) *IntentService {
	return &IntentService{
		store:  s,
		forms:  forms,
		urls:   urls,
		log:    log,
		now:    time.Now,
		newRef: NewMerchantReference,
	}
}

// NewMerchantReference returns a globally unique reference for one attempt.
func NewMerchantReference() string {
	return "ASC-" + uuid.NewString()
}

// Create validates the request, records a pending payment and returns the
// fields the browser must post to the hosted form.
func (s *IntentService) Create(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	tier, method, err := validateIntent(req)
	if err != nil {
		return nil, err
	}

	intent, err := billing.NewIntent(tier, method)
	if err != nil {
		return nil, apperr.ValidationErr("Unsupported payment method.", map[string]string{"paymentMethod": "is not supported"})
	}
	charge := intent.ChargeAmount()
	if req.Amount != 0 && req.Amount != charge {
		return nil, apperr.ValidationErr("Amount does not match the selected plan.", map[string]string{"amount": "does not match the selected plan"})
	}

	contact := billing.Contact{
		Name:  strings.TrimSpace(req.Name),
		Email: store.NormalizeEmail(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}

	user, err := s.resolveUser(ctx, contact, intent)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	mref := s.newRef()
	data, err := billing.EncodePaymentData(intent, mref, contact)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	payment := &billing.Payment{
		UserID:            user.ID,
		MerchantReference: mref,
		Amount:            charge,
		Method:            method,
		Status:            billing.StatusPending,
		PaymentData:       data,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("create payment: %w", err))
	}

	fp := adumo.FormPayment{
		MerchantReference: mref,
		Amount:            charge,
		Description:       describe(tier, method),
		Customer:          contact,
	}
	if dm, ok := intent.(billing.DepositMonthlyIntent); ok {
		fp.Recurring = &adumo.RecurringPlan{MonthlyAmount: dm.MonthlyAmount, Cycles: dm.TotalMonths}
	}

	form, err := s.forms.BuildVirtualForm(fp, s.urls)
	if err != nil {
		if uerr := s.store.UpdatePayment(ctx, payment.ID, map[string]any{"status": billing.StatusError}); uerr != nil {
			s.log.Error("failed to mark payment as errored", zap.String("merchant_reference", mref), zap.Error(uerr))
		}
		s.log.Error("virtual form build failed", zap.String("merchant_reference", mref), zap.Error(err))
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.Gateway {
			return nil, ae
		}
		return nil, apperr.GatewayErr(0, err)
	}

	metrics.PaymentIntents.WithLabelValues(string(method)).Inc()
	s.log.Info("payment intent created",
		zap.String("merchant_reference", mref),
		zap.Uint("user_id", user.ID),
		zap.String("tier", tier.Key),
		zap.String("method", string(method)),
		zap.Int64("amount", charge),
	)

	return &IntentResponse{
		URL:               form.URL,
		FormFields:        form.Fields,
		MerchantReference: mref,
		Amount:            charge,
		Method:            method,
		Tier:              tier.Key,
	}, nil
}

func validateIntent(req IntentRequest) (plans.Tier, billing.Method, error) {
	fields := map[string]string{}

	tier, ok := plans.Lookup(req.Tier)
	if !ok {
		fields["tier"] = "is not a known tier"
	}
	method, err := billing.ParseMethod(req.Method)
	if err != nil {
		fields["paymentMethod"] = "must be lump_sum or deposit_monthly"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "is required"
	}
	if err := validate.Var(strings.TrimSpace(req.Email), "required,email"); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if req.Amount < 0 {
		fields["amount"] = "must not be negative"
	}

	if len(fields) > 0 {
		return plans.Tier{}, "", apperr.ValidationErr("Please check the highlighted fields.", fields)
	}
	return tier, method, nil
}

func (s *IntentService) resolveUser(ctx context.Context, c billing.Contact, intent billing.Intent) (*users.User, error) {
	u, err := s.store.UserByEmail(ctx, c.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u = &users.User{
			Email:         c.Email,
			Name:          c.Name,
			Phone:         c.Phone,
			Role:          users.RoleInvestor,
			Tier:          intent.TierKey(),
			PaymentMethod: string(intent.Method()),
			PaymentStatus: users.PaymentStatusPending,
		}
		if err := s.store.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return u, nil
	case err != nil:
		return nil, err
	}

	// The caller is anonymous: only blanks are filled. Tier and method move
	// when a payment clears; the payment keeps its own contact snapshot.
	updates := map[string]any{}
	if u.Name == "" && c.Name != "" {
		updates["name"] = c.Name
		u.Name = c.Name
	}
	if u.Phone == "" && c.Phone != "" {
		updates["phone"] = c.Phone
		u.Phone = c.Phone
	}
	if len(updates) > 0 {
		if err := s.store.UpdateUser(ctx, u.ID, updates); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return u, nil
}

func describe(t plans.Tier, m billing.Method) string {
	if m == billing.MethodDepositMonthly {
		return fmt.Sprintf("%s tier deposit", t.Name)
	}
	return fmt.Sprintf("%s tier investment", t.Name)
}
