package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/infra/metrics"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

// SubscriptionGateway is the part of the gateway client the recurring flow
// needs.
type SubscriptionGateway interface {
	TokenizeCard(ctx context.Context, d adumo.CardDetails) (adumo.CardTokens, error)
	CreateSubscriberAndSchedule(ctx context.Context, r adumo.SubscriptionRequest) (adumo.SubscriptionIDs, error)
}

const DefaultCollectionDay = 1

type SubscriptionRequest struct {
	MerchantReference string
	Card              adumo.CardDetails
	// CollectionDay is the day of month to collect on, 1 to 28. Zero means
	// DefaultCollectionDay.
	CollectionDay int
}

type SubscriptionResult struct {
	SubscriptionID  uint      `json:"subscriptionId"`
	SubscriberID    string    `json:"subscriberId"`
	ScheduleID      string    `json:"scheduleId"`
	PaymentMethodID uint      `json:"paymentMethodId"`
	StartDate       time.Time `json:"startDate"`
	MonthlyAmount   int64     `json:"monthlyAmount"`
	TotalMonths     int       `json:"totalMonths"`
}

type SubscriptionService struct {
	store   store.Store
	gateway SubscriptionGateway
	log     *zap.Logger
	now     func() time.Time
}

func NewSubscriptionService(s store.Store, gw SubscriptionGateway, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{store: s, gateway: gw, log: log, now: time.Now}
}

// NextCollectionDate is the first collection of a new schedule: the given
// day of the month after now.
func NextCollectionDate(now time.Time, day int) (time.Time, error) {
	if day == 0 {
		day = DefaultCollectionDay
	}
	if day < 1 || day > 28 {
		return time.Time{}, apperr.ValidationErr("Collection day must be between 1 and 28.",
			map[string]string{"collectionDay": "must be between 1 and 28"})
	}
	return time.Date(now.Year(), now.Month()+1, day, 0, 0, 0, 0, now.Location()), nil
}

// CreateFromPayment sets up the monthly schedule that follows a completed
// deposit. Gateway side effects are not rolled back on failure, but no local
// subscription is written unless every step succeeds.
func (s *SubscriptionService) CreateFromPayment(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error) {
	if strings.TrimSpace(req.MerchantReference) == "" {
		return nil, apperr.ValidationErr("Payment reference is required.", map[string]string{"merchantReference": "is required"})
	}
	startDate, err := NextCollectionDate(s.now(), req.CollectionDay)
	if err != nil {
		return nil, err
	}
	collectionDay := startDate.Day()
	log := s.log.With(zap.String("merchant_reference", req.MerchantReference))

	tokens, err := s.gateway.TokenizeCard(ctx, req.Card)
	if err != nil {
		log.Warn("card tokenization failed", zap.Error(err))
		return nil, err
	}

	p, err := s.store.PaymentByReference(ctx, req.MerchantReference)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if p.Status != billing.StatusCompleted {
		return nil, apperr.ConflictErr("The deposit has not been confirmed yet.")
	}
	intent, err := billing.DecodeIntent(p.PaymentData)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("decode intent: %w", err))
	}
	plan, ok := intent.(billing.DepositMonthlyIntent)
	if !ok {
		return nil, apperr.ConflictErr("This payment does not include a monthly plan.")
	}

	if _, err := s.store.SubscriptionByOrigin(ctx, p.MerchantReference); err == nil {
		return nil, apperr.ConflictErr("A subscription already exists for this payment.")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(err)
	}

	u, err := s.store.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	ids, err := s.gateway.CreateSubscriberAndSchedule(ctx, adumo.SubscriptionRequest{
		CardToken:         tokens.CardToken,
		ProfileToken:      tokens.ProfileToken,
		MerchantReference: p.MerchantReference,
		MonthlyAmount:     plan.MonthlyAmount,
		TotalMonths:       plan.TotalMonths,
		StartDate:         startDate,
		CollectionDay:     collectionDay,
		CustomerName:      u.Name,
		CustomerEmail:     u.Email,
	})
	if err != nil {
		log.Error("subscriber creation failed", zap.Error(err))
		return nil, err
	}

	sub := &billing.Subscription{
		UserID:                  p.UserID,
		PaymentID:               p.ID,
		OriginMerchantReference: p.MerchantReference,
		Tier:                    plan.Tier,
		MonthlyAmount:           plan.MonthlyAmount,
		TotalMonths:             plan.TotalMonths,
		PaidMonths:              0,
		CollectionDay:           collectionDay,
		StartDate:               startDate,
		GatewaySubscriberID:     ids.SubscriberID,
		GatewayScheduleID:       ids.ScheduleID,
		Status:                  billing.SubscriptionActive,
	}
	pm := paymentMethodFrom(p.UserID, tokens)

	err = s.store.Tx(ctx, func(tx store.Store) error {
		if err := tx.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		return tx.SavePaymentMethod(ctx, pm)
	})
	if err != nil {
		log.Error("failed to persist subscription",
			zap.String("subscriber_id", ids.SubscriberID),
			zap.String("schedule_id", ids.ScheduleID),
			zap.Error(err),
		)
		return nil, apperr.Wrap(err)
	}

	log.Info("subscription created",
		zap.Uint("subscription_id", sub.ID),
		zap.String("schedule_id", ids.ScheduleID),
		zap.Bool("schedule_fallback", ids.Fallback),
	)
	return &SubscriptionResult{
		SubscriptionID:  sub.ID,
		SubscriberID:    ids.SubscriberID,
		ScheduleID:      ids.ScheduleID,
		PaymentMethodID: pm.ID,
		StartDate:       startDate,
		MonthlyAmount:   plan.MonthlyAmount,
		TotalMonths:     plan.TotalMonths,
	}, nil
}

// SaveCard tokenizes a card for a signed-in investor and stores it.
func (s *SubscriptionService) SaveCard(ctx context.Context, userID uint, card adumo.CardDetails) (*billing.PaymentMethod, error) {
	tokens, err := s.gateway.TokenizeCard(ctx, card)
	if err != nil {
		return nil, err
	}
	pm := paymentMethodFrom(userID, tokens)
	if err := s.store.SavePaymentMethod(ctx, pm); err != nil {
		return nil, apperr.Wrap(err)
	}
	return pm, nil
}

func paymentMethodFrom(userID uint, t adumo.CardTokens) *billing.PaymentMethod {
	profile := t.ProfileToken
	if profile == "" {
		profile = t.CardToken
	}
	return &billing.PaymentMethod{
		UserID:       userID,
		ProfileToken: profile,
		CardToken:    t.CardToken,
		Brand:        string(t.Brand),
		Last4:        t.Last4,
		ExpiryMonth:  t.ExpiryMonth,
		ExpiryYear:   t.ExpiryYear,
		HolderName:   t.HolderName,
	}
}

// CollectionNotice is a recurring collection result posted by the gateway.
type CollectionNotice struct {
	ScheduleID       string              `json:"scheduleId" binding:"required"`
	TransactionIndex adumo.FlexString    `json:"transactionIndex"`
	Status           string              `json:"status"`
	ResultCode       *int                `json:"resultCode"`
	Amount           decimal.NullDecimal `json:"amount"`
	ScheduleStatus   string              `json:"scheduleStatus"`
}

type CollectionOutcome string

const (
	CollectionRecorded  CollectionOutcome = "recorded"
	CollectionDuplicate CollectionOutcome = "already_processed"
	CollectionFailed    CollectionOutcome = "failed"
	CollectionPending   CollectionOutcome = "pending"
	CollectionIgnored   CollectionOutcome = "ignored"
)

// HandleCollection applies one collection notice. Each schedule/transaction
// pair counts towards PaidMonths at most once.
func (s *SubscriptionService) HandleCollection(ctx context.Context, n CollectionNotice, raw []byte) (out CollectionOutcome, err error) {
	defer func() {
		label := string(out)
		if err != nil {
			label = "error"
		}
		metrics.SubscriptionCollections.WithLabelValues(label).Inc()
	}()

	if strings.TrimSpace(n.ScheduleID) == "" || n.TransactionIndex == "" {
		return "", apperr.ValidationErr("scheduleId and transactionIndex are required.", nil)
	}
	log := s.log.With(
		zap.String("schedule_id", n.ScheduleID),
		zap.String("transaction_index", string(n.TransactionIndex)),
	)

	err = s.store.Tx(ctx, func(tx store.Store) error {
		sub, err := tx.LockSubscriptionBySchedule(ctx, n.ScheduleID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFoundErr("Subscription not found.")
		}
		if err != nil {
			return apperr.Wrap(err)
		}
		if sub.Status != billing.SubscriptionActive {
			log.Info("collection for closed subscription ignored", zap.String("status", string(sub.Status)))
			out = CollectionIgnored
			return nil
		}

		switch strings.ToUpper(strings.TrimSpace(n.ScheduleStatus)) {
		case "CANCELLED", "CANCELED", "FAILED":
			log.Warn("schedule closed by gateway", zap.String("schedule_status", n.ScheduleStatus))
			out = CollectionFailed
			return tx.UpdateSubscription(ctx, sub.ID, map[string]any{"status": billing.SubscriptionFailed})
		}

		switch adumo.MapResult(n.Status, n.ResultCode) {
		case billing.StatusCompleted:
			var recorded bool
			recorded, err = s.recordCollection(ctx, tx, sub, n, raw)
			if err != nil {
				return err
			}
			out = CollectionRecorded
			if !recorded {
				out = CollectionDuplicate
			}
		case billing.StatusFailed:
			log.Warn("monthly collection failed", zap.String("gateway_status", n.Status))
			out = CollectionFailed
		default:
			out = CollectionPending
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *SubscriptionService) recordCollection(ctx context.Context, tx store.Store, sub *billing.Subscription, n CollectionNotice, raw []byte) (bool, error) {
	amount := sub.MonthlyAmount
	if n.Amount.Valid {
		amount = adumo.ToMinorUnits(n.Amount.Decimal)
		if amount != sub.MonthlyAmount {
			s.log.Error("collection amount does not match subscription",
				zap.String("schedule_id", n.ScheduleID),
				zap.Int64("expected", sub.MonthlyAmount),
				zap.Int64("claimed", amount),
			)
			return false, apperr.AmountMismatchErr(sub.MonthlyAmount, amount)
		}
	}

	key := n.ScheduleID + "-" + string(n.TransactionIndex)
	inv := &billing.Invoice{
		UserID:            sub.UserID,
		SubscriptionID:    &sub.ID,
		MerchantReference: key,
		Amount:            amount,
		Status:            "paid",
		IssuedAt:          s.now(),
	}
	if err := tx.FirstOrCreateInvoice(ctx, inv); err != nil {
		return false, apperr.Wrap(err)
	}

	resultCode := 0
	if n.ResultCode != nil {
		resultCode = *n.ResultCode
	}
	inserted, err := tx.InsertTransaction(ctx, &billing.Transaction{
		InvoiceID:         inv.ID,
		MerchantReference: key,
		Amount:            amount,
		ResultCode:        resultCode,
		GatewayStatus:     n.Status,
		TransactionIndex:  string(n.TransactionIndex),
		Channel:           "subscription",
		RawClaims:         toJSON(n),
		RawPayload:        rawJSON(raw),
	})
	if err != nil {
		return false, apperr.Wrap(err)
	}
	if !inserted {
		return false, nil
	}

	paid := sub.PaidMonths + 1
	updates := map[string]any{"paid_months": paid}
	if paid >= sub.TotalMonths {
		updates["status"] = billing.SubscriptionCompleted
	}
	if err := tx.UpdateSubscription(ctx, sub.ID, updates); err != nil {
		return false, apperr.Wrap(err)
	}
	s.log.Info("monthly collection recorded",
		zap.Uint("subscription_id", sub.ID),
		zap.Int("paid_months", paid),
		zap.Int("total_months", sub.TotalMonths),
	)
	return true, nil
}

func rawJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
