package adumo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ascendancy-backend/internal/shared/apperr"
)

type SubscriptionRequest struct {
	CardToken         string
	ProfileToken      string
	MerchantReference string
	MonthlyAmount     int64 // cents
	TotalMonths       int
	StartDate         time.Time
	CollectionDay     int
	CustomerName      string
	CustomerEmail     string
}

type SubscriptionIDs struct {
	SubscriberID string
	ScheduleID   string
	// Fallback is set when the schedule came from the second phase.
	Fallback bool
}

type subscriberRequest struct {
	MerchantUID       string          `json:"merchantUid"`
	ApplicationUID    string          `json:"applicationUid"`
	CardToken         string          `json:"cardToken"`
	ProfileUID        string          `json:"profileUid,omitempty"`
	MerchantReference string          `json:"merchantReference"`
	Name              string          `json:"name,omitempty"`
	Email             string          `json:"email,omitempty"`
	Schedule          scheduleRequest `json:"schedule"`
}

type scheduleRequest struct {
	SubscriberID  string `json:"subscriberId,omitempty"`
	MerchantUID   string `json:"merchantUid,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Frequency     string `json:"frequency"`
	Cycles        int    `json:"numberOfCycles"`
	StartDate     string `json:"startDate"`
	CollectionDay int    `json:"collectionDay"`
	Reference     string `json:"reference"`
}

type subscriberResponse struct {
	SubscriberID    string `json:"subscriberId"`
	ID              string `json:"id"`
	ScheduleID      string `json:"scheduleId"`
	PaymentSchedule struct {
		ID string `json:"id"`
	} `json:"paymentSchedule"`
}

type scheduleResponse struct {
	ScheduleID string `json:"scheduleId"`
	ID         string `json:"id"`
}

// CreateSubscriberAndSchedule registers the card holder as a subscriber and
// makes sure a monthly schedule exists for them.
//
// Phase one creates the subscriber with the schedule inline. Some merchant
// profiles return no schedule id from that call; that is not a failure, it
// means phase two (createScheduleFallback) must create the schedule
// explicitly. A missing subscriber id is a failure.
func (c *Client) CreateSubscriberAndSchedule(ctx context.Context, r SubscriptionRequest) (SubscriptionIDs, error) {
	sched := c.scheduleFor(r)

	var resp subscriberResponse
	err := c.doJSON(ctx, "create_subscriber", subscribersPath, subscriberRequest{
		MerchantUID:       c.cfg.MerchantID,
		ApplicationUID:    c.cfg.ApplicationID,
		CardToken:         r.CardToken,
		ProfileUID:        r.ProfileToken,
		MerchantReference: r.MerchantReference,
		Name:              r.CustomerName,
		Email:             r.CustomerEmail,
		Schedule:          sched,
	}, &resp)
	if err != nil {
		return SubscriptionIDs{}, err
	}

	ids := SubscriptionIDs{
		SubscriberID: firstNonEmpty(resp.SubscriberID, resp.ID),
		ScheduleID:   firstNonEmpty(resp.ScheduleID, resp.PaymentSchedule.ID),
	}
	if ids.SubscriberID == "" {
		return SubscriptionIDs{}, apperr.GatewayErr(0, ErrMissingSubscriber)
	}
	if ids.ScheduleID != "" {
		return ids, nil
	}

	c.log.Info("subscriber created without schedule, creating schedule explicitly",
		zap.String("subscriber_id", ids.SubscriberID),
		zap.String("merchant_reference", r.MerchantReference),
	)
	scheduleID, err := c.createScheduleFallback(ctx, ids.SubscriberID, sched)
	if err != nil {
		return SubscriptionIDs{}, err
	}
	ids.ScheduleID = scheduleID
	ids.Fallback = true
	return ids, nil
}

func (c *Client) createScheduleFallback(ctx context.Context, subscriberID string, sched scheduleRequest) (string, error) {
	sched.SubscriberID = subscriberID
	sched.MerchantUID = c.cfg.MerchantID

	var resp scheduleResponse
	if err := c.doJSON(ctx, "create_schedule", schedulesPath, sched, &resp); err != nil {
		return "", err
	}
	id := firstNonEmpty(resp.ScheduleID, resp.ID)
	if id == "" {
		return "", apperr.GatewayErr(0, fmt.Errorf("%w (subscriber %s)", ErrMissingSchedule, subscriberID))
	}
	return id, nil
}

func (c *Client) scheduleFor(r SubscriptionRequest) scheduleRequest {
	return scheduleRequest{
		Amount:        FormatMajorUnits(r.MonthlyAmount),
		Currency:      c.currency(),
		Frequency:     "MONTHLY",
		Cycles:        r.TotalMonths,
		StartDate:     r.StartDate.Format("2006-01-02"),
		CollectionDay: r.CollectionDay,
		Reference:     r.MerchantReference,
	}
}

func (c *Client) currency() string {
	if c.cfg.Currency == "" {
		return "ZAR"
	}
	return c.cfg.Currency
}
