package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascendancy-backend/internal/api/httpx"
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/infra/adumo"
	"ascendancy-backend/internal/service/payments"
	"ascendancy-backend/internal/shared/apperr"
	"ascendancy-backend/internal/store"
)

type fakeIntents struct {
	CreateFunc func(ctx context.Context, req payments.IntentRequest) (*payments.IntentResponse, error)
}

func (f *fakeIntents) Create(ctx context.Context, req payments.IntentRequest) (*payments.IntentResponse, error) {
	return f.CreateFunc(ctx, req)
}

type fakeReconciler struct {
	ReconcileFunc func(ctx context.Context, cb payments.Callback) (payments.Outcome, error)
}

func (f *fakeReconciler) Reconcile(ctx context.Context, cb payments.Callback) (payments.Outcome, error) {
	return f.ReconcileFunc(ctx, cb)
}

type fakeSubscriptions struct {
	CreateFromPaymentFunc func(ctx context.Context, req payments.SubscriptionRequest) (*payments.SubscriptionResult, error)
	SaveCardFunc          func(ctx context.Context, userID uint, card adumo.CardDetails) (*billing.PaymentMethod, error)
}

func (f *fakeSubscriptions) CreateFromPayment(ctx context.Context, req payments.SubscriptionRequest) (*payments.SubscriptionResult, error) {
	return f.CreateFromPaymentFunc(ctx, req)
}

func (f *fakeSubscriptions) SaveCard(ctx context.Context, userID uint, card adumo.CardDetails) (*billing.PaymentMethod, error) {
	return f.SaveCardFunc(ctx, userID, card)
}

type fakePayments struct {
	byRef map[string]*billing.Payment
}

func (f *fakePayments) PaymentByReference(_ context.Context, mref string) (*billing.Payment, error) {
	p, ok := f.byRef[mref]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) PaymentsForUser(_ context.Context, userID uint) ([]billing.Payment, error) {
	var out []billing.Payment
	for _, p := range f.byRef {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type deps struct {
	intents  *fakeIntents
	rec      *fakeReconciler
	subs     *fakeSubscriptions
	payments *fakePayments
}

func newRouter(d deps, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.payments == nil {
		d.payments = &fakePayments{}
	}
	h := NewHandler(d.intents, d.rec, d.subs, d.payments, zap.NewNop())

	r := gin.New()
	session := func(c *gin.Context) {
		if userID != 0 {
			c.Set(httpx.KeyUserID, userID)
		}
	}
	r.POST("/api/create-payment-intent", h.CreateIntent)
	r.POST("/api/verify-payment", h.VerifyPayment)
	r.POST("/api/adumo/create-subscription-from-payment", h.CreateSubscriptionFromPayment)
	r.POST("/api/adumo/tokenize-card", session, h.TokenizeCard)
	r.GET("/api/payments", session, h.GetPaymentHistory)
	r.GET("/api/payments/:ref", session, h.GetPaymentStatus)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIntent(t *testing.T) {
	var got payments.IntentRequest
	intents := &fakeIntents{CreateFunc: func(_ context.Context, req payments.IntentRequest) (*payments.IntentResponse, error) {
		got = req
		return &payments.IntentResponse{
			URL:               "https://gw.example.com/form",
			FormFields:        map[string]string{"MerchantReference": "ASC-1"},
			MerchantReference: "ASC-1",
			Amount:            300000,
			Method:            billing.MethodDepositMonthly,
			Tier:              "builder",
		}, nil
	}}
	r := newRouter(deps{intents: intents}, 0)

	w := do(r, http.MethodPost, "/api/create-payment-intent",
		`{"tier":"builder","paymentMethod":"deposit_monthly","name":"Naledi","email":"naledi@example.com","phone":"+27820000000"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{`"url":"https://gw.example.com/form"`, `"formFields"`, `"merchantReference":"ASC-1"`, `"amount":300000`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("body lacks %s: %s", want, w.Body.String())
		}
	}
	if got.Tier != "builder" || got.Method != "deposit_monthly" || got.Email != "naledi@example.com" {
		t.Fatalf("request = %+v", got)
	}
}

func TestCreateIntentRejectsBeforeService(t *testing.T) {
	called := false
	intents := &fakeIntents{CreateFunc: func(context.Context, payments.IntentRequest) (*payments.IntentResponse, error) {
		called = true
		return nil, nil
	}}
	r := newRouter(deps{intents: intents}, 0)

	w := do(r, http.MethodPost, "/api/create-payment-intent", `{"tier":"builder","paymentMethod":"lump_sum","email":"bad"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if called {
		t.Fatal("service called with invalid body")
	}
	if !strings.Contains(w.Body.String(), `"email"`) {
		t.Fatalf("no email field error: %s", w.Body.String())
	}
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	intents := &fakeIntents{CreateFunc: func(context.Context, payments.IntentRequest) (*payments.IntentResponse, error) {
		return nil, apperr.GatewayErr(0, adumo.ErrAuth)
	}}
	r := newRouter(deps{intents: intents}, 0)

	w := do(r, http.MethodPost, "/api/create-payment-intent",
		`{"tier":"visionary","paymentMethod":"lump_sum","name":"A","email":"a@example.com","phone":"1"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "oauth") {
		t.Fatalf("internal detail leaked: %s", w.Body.String())
	}
}

func TestVerifyPaymentUsesManualChannel(t *testing.T) {
	var got payments.Callback
	rec := &fakeReconciler{ReconcileFunc: func(_ context.Context, cb payments.Callback) (payments.Outcome, error) {
		got = cb
		return payments.Outcome{MerchantReference: "ASC-9", Status: billing.StatusCompleted, RequiresSubscriptionSetup: true}, nil
	}}
	r := newRouter(deps{rec: rec}, 0)

	w := do(r, http.MethodPost, "/api/verify-payment", `{"jwt":"a.b.c"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.Channel != payments.ChannelManual || got.Body.Get("jwt") != "a.b.c" {
		t.Fatalf("callback = %+v", got)
	}
	if !strings.Contains(w.Body.String(), `"requiresSubscriptionSetup":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestPaymentStatusOwnerOnly(t *testing.T) {
	pay := &fakePayments{byRef: map[string]*billing.Payment{
		"ASC-1": {UserID: 7, MerchantReference: "ASC-1", Status: billing.StatusPending, Amount: 1200000},
	}}

	tests := []struct {
		name   string
		userID uint
		ref    string
		want   int
	}{
		{"owner", 7, "ASC-1", http.StatusOK},
		{"someone else", 8, "ASC-1", http.StatusNotFound},
		{"unknown", 7, "ASC-404", http.StatusNotFound},
		{"anonymous", 0, "ASC-1", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(deps{payments: pay}, tc.userID)
			w := do(r, http.MethodGet, "/api/payments/"+tc.ref, "")
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestPaymentHistoryEmptyIsArray(t *testing.T) {
	r := newRouter(deps{}, 3)
	w := do(r, http.MethodGet, "/api/payments", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestCreateSubscriptionFromPayment(t *testing.T) {
	var got payments.SubscriptionRequest
	subs := &fakeSubscriptions{CreateFromPaymentFunc: func(_ context.Context, req payments.SubscriptionRequest) (*payments.SubscriptionResult, error) {
		got = req
		return &payments.SubscriptionResult{SubscriberID: "sub-1", ScheduleID: "sch-1"}, nil
	}}
	r := newRouter(deps{subs: subs}, 0)

	w := do(r, http.MethodPost, "/api/adumo/create-subscription-from-payment",
		`{"merchantReference":"ASC-1","cardNumber":"4111111111111111","cardHolderName":"N Dlamini","expiryMonth":12,"expiryYear":2027,"cvv":"123","collectionDay":15}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got.MerchantReference != "ASC-1" || got.CollectionDay != 15 || got.Card.Number != "4111111111111111" || got.Card.ExpiryYear != 2027 {
		t.Fatalf("request = %+v", got)
	}
}

func TestCreateSubscriptionRejectsCollectionDay(t *testing.T) {
	r := newRouter(deps{subs: &fakeSubscriptions{}}, 0)
	w := do(r, http.MethodPost, "/api/adumo/create-subscription-from-payment",
		`{"merchantReference":"ASC-1","cardNumber":"4111111111111111","cardHolderName":"N","expiryMonth":12,"expiryYear":2027,"cvv":"123","collectionDay":31}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTokenizeCardNeedsSession(t *testing.T) {
	var gotUser uint
	subs := &fakeSubscriptions{SaveCardFunc: func(_ context.Context, userID uint, card adumo.CardDetails) (*billing.PaymentMethod, error) {
		gotUser = userID
		return &billing.PaymentMethod{UserID: userID, Brand: "visa", Last4: "1111"}, nil
	}}
	body := `{"cardNumber":"4111111111111111","cardHolderName":"N","expiryMonth":12,"expiryYear":2027,"cvv":"123"}`

	if w := do(newRouter(deps{subs: subs}, 0), http.MethodPost, "/api/adumo/tokenize-card", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", w.Code)
	}

	w := do(newRouter(deps{subs: subs}, 5), http.MethodPost, "/api/adumo/tokenize-card", body)
	if w.Code != http.StatusCreated || gotUser != 5 {
		t.Fatalf("status = %d user = %d", w.Code, gotUser)
	}
	if strings.Contains(w.Body.String(), "4111111111111111") {
		t.Fatal("card number echoed back")
	}
}
