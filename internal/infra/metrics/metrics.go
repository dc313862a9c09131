package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascendancy_payment_intents_total",
		Help: "Payment intents created, by payment method.",
	}, []string{"method"})

	Callbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascendancy_callbacks_total",
		Help: "Gateway callbacks reconciled, by channel and outcome.",
	}, []string{"channel", "outcome"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascendancy_gateway_requests_total",
		Help: "Calls to the Adumo API, by operation and result.",
	}, []string{"operation", "result"})

	OTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascendancy_otp_requests_total",
		Help: "OTP requests and verifications, by result.",
	}, []string{"result"})

	SubscriptionCollections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascendancy_subscription_collections_total",
		Help: "Subscription collection webhooks, by outcome.",
	}, []string{"outcome"})
)

// GatewayResult is the label value for a finished gateway call.
func GatewayResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
