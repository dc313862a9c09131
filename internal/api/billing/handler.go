// Package billing serves the payment intent, status and recurring setup
// endpoints.
package billing

import (
	"context"

	"go.uber.org/zap"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/service/payments"
)

type IntentCreator interface {
	Create(ctx context.Context, req payments.IntentRequest) (*payments.IntentResponse, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, cb payments.Callback) (payments.Outcome, error)
}

type SubscriptionCreator interface {
	CreateFromPayment(ctx context.Context, req payments.SubscriptionRequest) (*payments.SubscriptionResult, error)
	SaveCard(ctx context.Context, userID uint, card adumo.CardDetails) (*billing.PaymentMethod, error)
}

type PaymentReader interface {
	PaymentByReference(ctx context.Context, mref string) (*billing.Payment, error)
	PaymentsForUser(ctx context.Context, userID uint) ([]billing.Payment, error)
}

type Handler struct {
	intents       IntentCreator
	reconciler    Reconciler
	subscriptions SubscriptionCreator
	payments      PaymentReader
	log           *zap.Logger
}

func NewHandler(intents IntentCreator, reconciler Reconciler, subs SubscriptionCreator, pr PaymentReader, log *zap.Logger) *Handler {
	return &Handler{
		intents:       intents,
		reconciler:    reconciler,
		subscriptions: subs,
		payments:      pr,
		log:           log,
	}
}
