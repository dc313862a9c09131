package adumo

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/shared/apperr"
)

func testURLs() ReturnURLs {
	return ReturnURLs{
		Success: "https://api.example.com/payment-return",
		Failed:  "https://api.example.com/payment-return",
		Notify:  "https://api.example.com/api/payment-webhook",
	}
}

func TestBuildVirtualFormLumpSum(t *testing.T) {
	c := New(testConfig("https://gw.example.com"), WithClock(func() time.Time { return testNow }))

	form, err := c.BuildVirtualForm(FormPayment{
		MerchantReference: "ASC-123",
		Amount:            2400000,
		Description:       "Innovator tier",
		Customer:          billing.Contact{Name: "Sipho van der Merwe", Email: "sipho@example.com"},
	}, testURLs())
	if err != nil {
		t.Fatalf("BuildVirtualForm: %v", err)
	}

	if form.URL != "https://gw.example.com/product/payment/v1/initialisevirtual" {
		t.Fatalf("url = %q", form.URL)
	}
	want := map[string]string{
		"MerchantID":            "merchant-uid",
		"ApplicationID":         "application-uid",
		"MerchantReference":     "ASC-123",
		"Amount":                "24000.00",
		"Item1Amount":           "24000.00",
		"Item1Quantity":         "1",
		"txtCurrencyCode":       "ZAR",
		"NotificationURL":       "https://api.example.com/api/payment-webhook",
		"RedirectSuccessfulURL": "https://api.example.com/payment-return",
		"CustomerFirstName":     "Sipho",
		"CustomerLastName":      "van der Merwe",
	}
	for k, v := range want {
		if form.Fields[k] != v {
			t.Errorf("%s = %q, want %q", k, form.Fields[k], v)
		}
	}
	if _, ok := form.Fields["Recurring"]; ok {
		t.Error("lump sum form carries recurring block")
	}

	claims := &FormClaims{}
	_, err = jwt.ParseWithClaims(form.Fields["Token"], claims,
		func(*jwt.Token) (any, error) { return []byte("form-secret"), nil },
		jwt.WithTimeFunc(func() time.Time { return testNow }),
	)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Issuer != "application-uid" || claims.MerchantID != "merchant-uid" || claims.MerchantReference != "ASC-123" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Amount != "24000.00" {
		t.Fatalf("amount claim = %q", claims.Amount)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 10*time.Minute {
		t.Fatalf("ttl = %v", got)
	}
	if claims.ID == "" {
		t.Fatal("missing jti")
	}
}

func TestBuildVirtualFormDepositAddsRecurringBlock(t *testing.T) {
	c := New(testConfig("https://gw.example.com"), WithClock(func() time.Time { return testNow }))

	form, err := c.BuildVirtualForm(FormPayment{
		MerchantReference: "ASC-9",
		Amount:            300000,
		Recurring:         &RecurringPlan{MonthlyAmount: 75000, Cycles: 12},
	}, testURLs())
	if err != nil {
		t.Fatalf("BuildVirtualForm: %v", err)
	}
	if form.Fields["Amount"] != "3000.00" {
		t.Fatalf("Amount = %q", form.Fields["Amount"])
	}
	if form.Fields["Recurring"] != "true" || form.Fields["RecurringAmount"] != "750.00" ||
		form.Fields["RecurringCycles"] != "12" || form.Fields["RecurringFrequency"] != "MONTHLY" {
		t.Fatalf("recurring fields = %v", form.Fields)
	}
}

func TestBuildVirtualFormRejectsIncompletePayment(t *testing.T) {
	c := New(testConfig("https://gw.example.com"))
	_, err := c.BuildVirtualForm(FormPayment{MerchantReference: "ASC-1"}, testURLs())
	if !apperr.IsKind(err, apperr.Invalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildVirtualFormWithoutSecret(t *testing.T) {
	cfg := testConfig("https://gw.example.com")
	cfg.Secret = ""
	_, err := New(cfg).BuildVirtualForm(FormPayment{MerchantReference: "ASC-1", Amount: 100}, testURLs())
	if !apperr.IsKind(err, apperr.Configuration) {
		t.Fatalf("err = %v", err)
	}
}
