package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/infra/metrics"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

// Verifier checks a signed result assertion.
type Verifier interface {
	VerifyResult(token string) (*adumo.ResultClaims, error)
}

type Channel string

const (
	ChannelReturn  Channel = "return"
	ChannelWebhook Channel = "webhook"
	ChannelManual  Channel = "manual"
)

// Callback is one inbound gateway notification, whatever its transport.
type Callback struct {
	Channel    Channel
	AuthHeader string
	Body       url.Values
	Query      url.Values
}

type Outcome struct {
	MerchantReference string
	Status            billing.PaymentStatus
	// AlreadyProcessed is set when the payment was completed by an earlier
	// delivery. Nothing was changed.
	AlreadyProcessed bool
	// RequiresSubscriptionSetup routes a completed deposit payment to card
	// capture for the monthly schedule.
	RequiresSubscriptionSetup bool
	Method                    billing.Method
	Tier                      string
}

type Reconciler struct {
	store    store.Store
	verifier Verifier
	log      *zap.Logger
	now      func() time.Time
}

func NewReconciler(s store.Store, v Verifier, log *zap.Logger) *Reconciler {
	return &Reconciler{store: s, verifier: v, log: log, now: time.Now}
}

// Reconcile verifies a callback and applies its result to the payment it
// names. Replays of a completed payment are acknowledged without changes.
func (r *Reconciler) Reconcile(ctx context.Context, cb Callback) (out Outcome, err error) {
	defer func() {
		metrics.Callbacks.WithLabelValues(string(cb.Channel), outcomeLabel(out, err)).Inc()
	}()

	token, err := adumo.ExtractAssertion(cb.AuthHeader, cb.Body, cb.Query)
	if err != nil {
		r.log.Warn("callback without assertion", zap.String("channel", string(cb.Channel)))
		return Outcome{}, err
	}

	claims, err := r.verifier.VerifyResult(token)
	if err != nil {
		r.log.Warn("callback assertion rejected", zap.String("channel", string(cb.Channel)), zap.Error(err))
		return Outcome{}, err
	}

	status := adumo.MapResult(claims.Status, claims.ResultCode())
	log := r.log.With(
		zap.String("channel", string(cb.Channel)),
		zap.String("merchant_reference", claims.MerchantReference),
		zap.String("gateway_status", claims.Status),
		zap.String("mapped_status", string(status)),
	)

	err = r.store.Tx(ctx, func(tx store.Store) error {
		var txErr error
		out, txErr = r.apply(ctx, tx, cb, claims, status, log)
		return txErr
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (r *Reconciler) apply(ctx context.Context, tx store.Store, cb Callback, claims *adumo.ResultClaims, status billing.PaymentStatus, log *zap.Logger) (Outcome, error) {
	p, err := tx.LockPaymentByReference(ctx, claims.MerchantReference)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("callback for unknown merchant reference")
		return Outcome{}, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return Outcome{}, apperr.Wrap(err)
	}

	intent, ierr := billing.DecodeIntent(p.PaymentData)
	if ierr != nil {
		log.Warn("payment carries no decodable intent", zap.Error(ierr))
	}

	out := Outcome{
		MerchantReference: p.MerchantReference,
		Status:            p.Status,
		Method:            p.Method,
	}
	if intent != nil {
		out.Tier = intent.TierKey()
	}

	if p.Status == billing.StatusCompleted {
		log.Info("replayed callback for completed payment")
		out.AlreadyProcessed = true
		setup, err := r.needsSubscription(ctx, tx, p, intent)
		if err != nil {
			return Outcome{}, err
		}
		out.RequiresSubscriptionSetup = setup
		return out, nil
	}

	// The browser redirect is informational; server-to-server deliveries
	// must also prove the amount.
	if cb.Channel != ChannelReturn {
		if got := claims.AmountMinor(); got != p.Amount {
			log.Error("callback amount does not match payment",
				zap.Int64("expected", p.Amount),
				zap.Int64("claimed", got),
			)
			return Outcome{}, apperr.AmountMismatchErr(p.Amount, got)
		}
	}

	switch status {
	case billing.StatusCompleted:
		if err := r.complete(ctx, tx, cb, p, claims); err != nil {
			return Outcome{}, err
		}
		out.Status = billing.StatusCompleted
		setup, err := r.needsSubscription(ctx, tx, p, intent)
		if err != nil {
			return Outcome{}, err
		}
		out.RequiresSubscriptionSetup = setup
		log.Info("payment completed", zap.Bool("requires_subscription_setup", setup))

	case billing.StatusFailed:
		if p.Status.CanTransitionTo(billing.StatusFailed) {
			if err := r.fail(ctx, tx, p); err != nil {
				return Outcome{}, err
			}
		}
		out.Status = billing.StatusFailed
		log.Info("payment failed")

	default:
		log.Info("payment still pending at gateway")
	}
	return out, nil
}

func (r *Reconciler) complete(ctx context.Context, tx store.Store, cb Callback, p *billing.Payment, claims *adumo.ResultClaims) error {
	now := r.now()

	inv := &billing.Invoice{
		UserID:            p.UserID,
		PaymentID:         &p.ID,
		MerchantReference: p.MerchantReference,
		Amount:            p.Amount,
		Status:            "paid",
		IssuedAt:          now,
	}
	if err := tx.FirstOrCreateInvoice(ctx, inv); err != nil {
		return apperr.Wrap(fmt.Errorf("invoice: %w", err))
	}

	resultCode := 0
	if claims.Result != nil {
		resultCode = *claims.Result
	}
	if _, err := tx.InsertTransaction(ctx, &billing.Transaction{
		InvoiceID:         inv.ID,
		MerchantReference: p.MerchantReference,
		Amount:            claims.AmountMinor(),
		ResultCode:        resultCode,
		GatewayStatus:     claims.Status,
		TransactionIndex:  string(claims.TransactionIndex),
		Channel:           string(cb.Channel),
		RawClaims:         toJSON(claims),
		RawPayload:        toJSON(map[string]url.Values{"body": cb.Body, "query": cb.Query}),
	}); err != nil {
		return apperr.Wrap(fmt.Errorf("transaction: %w", err))
	}

	updates := map[string]any{
		"status":       billing.StatusCompleted,
		"completed_at": now,
	}
	if idx := string(claims.TransactionIndex); idx != "" {
		updates["gateway_transaction_index"] = idx
	}
	if err := tx.UpdatePayment(ctx, p.ID, updates); err != nil {
		return apperr.Wrap(fmt.Errorf("payment: %w", err))
	}

	u, err := tx.UserByID(ctx, p.UserID)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("user: %w", err))
	}
	userUpdates := map[string]any{
		"payment_status": users.PaymentStatusCompleted,
		"amount":         p.Amount,
		"payment_method": string(p.Method),
	}
	if d, err := billing.DecodePaymentData(p.PaymentData); err == nil && d.Tier != "" {
		userUpdates["tier"] = d.Tier
	}

	prior, err := tx.CountCompletedPayments(ctx, p.UserID, p.ID)
	if err != nil {
		return apperr.Wrap(err)
	}
	if prior == 0 && !u.HasProgress() {
		tier, _ := userUpdates["tier"].(string)
		if tier == "" {
			tier = u.Tier
		}
		userUpdates["progress"] = users.DefaultProgress(tier).JSON()
	}
	if err := tx.UpdateUser(ctx, p.UserID, userUpdates); err != nil {
		return apperr.Wrap(fmt.Errorf("user: %w", err))
	}
	return nil
}

func (r *Reconciler) fail(ctx context.Context, tx store.Store, p *billing.Payment) error {
	if err := tx.UpdatePayment(ctx, p.ID, map[string]any{"status": billing.StatusFailed}); err != nil {
		return apperr.Wrap(err)
	}
	u, err := tx.UserByID(ctx, p.UserID)
	if err != nil {
		return apperr.Wrap(err)
	}
	if u.PaymentStatus == users.PaymentStatusCompleted {
		return nil
	}
	if err := tx.UpdateUser(ctx, p.UserID, map[string]any{"payment_status": users.PaymentStatusFailed}); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

func (r *Reconciler) needsSubscription(ctx context.Context, tx store.Store, p *billing.Payment, intent billing.Intent) (bool, error) {
	if _, ok := intent.(billing.DepositMonthlyIntent); !ok {
		return false, nil
	}
	_, err := tx.SubscriptionByOrigin(ctx, p.MerchantReference)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return true, nil
	case err != nil:
		return false, apperr.Wrap(err)
	}
	return false, nil
}

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func outcomeLabel(out Outcome, err error) string {
	switch {
	case err != nil:
		if ae, ok := apperr.As(err); ok {
			return string(ae.Kind)
		}
		return "error"
	case out.AlreadyProcessed:
		return "already_processed"
	default:
		return string(out.Status)
	}
}
