package payments

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ascendancy-backend/config"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/store"
	"ascendancy-backend/internal/store/storetest"
)

const testSecret = "form-secret"

func adumoConfig() config.AdumoConfig {
	return config.AdumoConfig{
		BaseURL:       "https://gw.example.com",
		FormURL:       "https://gw.example.com/product/payment/v1/initialisevirtual",
		MerchantID:    "merchant-uid",
		ApplicationID: "application-uid",
		Secret:        testSecret,
		Currency:      "ZAR",
	}
}

type fixture struct {
	store      *store.Gorm
	client     *adumo.Client
	intents    *IntentService
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(storetest.Open(t))
	client := adumo.New(adumoConfig())
	log := zap.NewNop()
	urls := CallbackURLs("https://api.example.com", "https://api.example.com")
	return &fixture{
		store:      st,
		client:     client,
		intents:    NewIntentService(st, client, urls, log),
		reconciler: NewReconciler(st, client, log),
	}
}

func (f *fixture) intent(t *testing.T, tier, method string) *IntentResponse {
	t.Helper()
	resp, err := f.intents.Create(context.Background(), IntentRequest{
		Tier:   tier,
		Method: method,
		Name:   "Naledi Dlamini",
		Email:  "naledi@example.com",
		Phone:  "+27820000000",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	return resp
}

type claimOpt func(*adumo.ResultClaims)

func withStatus(s string) claimOpt { return func(c *adumo.ResultClaims) { c.Status = s } }
func withResult(r int) claimOpt    { return func(c *adumo.ResultClaims) { c.Result = &r } }
func withAmount(minor int64) claimOpt {
	return func(c *adumo.ResultClaims) { c.Amount = decimal.NewNullDecimal(decimal.New(minor, -2)) }
}
func withMerchant(id string) claimOpt { return func(c *adumo.ResultClaims) { c.MerchantID = id } }

func signedResult(t *testing.T, mref string, amount int64, opts ...claimOpt) string {
	t.Helper()
	zero := 0
	now := time.Now()
	c := adumo.ResultClaims{
		MerchantID:        "merchant-uid",
		ApplicationID:     "application-uid",
		MerchantReference: mref,
		Amount:            decimal.NewNullDecimal(decimal.New(amount, -2)),
		Result:            &zero,
		Status:            "AUTHORISED",
		TransactionIndex:  adumo.FlexString("TX-" + mref),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "adumo",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	for _, o := range opts {
		o(&c)
	}
	tok, err := adumo.SignResultAssertion(testSecret, c)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func webhook(token string) Callback {
	return Callback{Channel: ChannelWebhook, Body: url.Values{"jwt": {token}}}
}

func browserReturn(token string) Callback {
	return Callback{Channel: ChannelReturn, Query: url.Values{"_jwt": {token}}}
}
