package adumo

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"ascendancy-backend/internal/shared/apperr"
)

func intPtr(i int) *int { return &i }

func resultClaims() ResultClaims {
	return ResultClaims{
		MerchantID:        "merchant-uid",
		ApplicationID:     "application-uid",
		MerchantReference: "ASC-1",
		Amount:            decimal.NewNullDecimal(decimal.RequireFromString("3000.00")),
		Result:            intPtr(0),
		Status:            "AUTHORISED",
		TransactionIndex:  "tx-77",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "adumo",
			IssuedAt:  jwt.NewNumericDate(testNow),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(10 * time.Minute)),
		},
	}
}

func sign(t *testing.T, claims ResultClaims) string {
	t.Helper()
	tok, err := SignResultAssertion("form-secret", claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func clientAt(now time.Time) *Client {
	return New(testConfig("https://gw.example.com"), WithClock(func() time.Time { return now }))
}

func TestVerifyResult(t *testing.T) {
	c := clientAt(testNow)

	claims, err := c.VerifyResult(sign(t, resultClaims()))
	if err != nil {
		t.Fatalf("VerifyResult: %v", err)
	}
	if claims.AmountMinor() != 300000 {
		t.Fatalf("amount = %d", claims.AmountMinor())
	}
	if claims.TransactionIndex != "tx-77" || *claims.Result != 0 {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyResultRejections(t *testing.T) {
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		now    time.Time
		target error
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, _ := SignResultAssertion("other", resultClaims())
				return tok
			},
			now:    testNow,
			target: ErrInvalidAssertion,
		},
		{
			name: "other algorithm",
			token: func(t *testing.T) string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, resultClaims()).SignedString([]byte("form-secret"))
				if err != nil {
					t.Fatal(err)
				}
				return tok
			},
			now:    testNow,
			target: ErrInvalidAssertion,
		},
		{
			name:   "expired beyond leeway",
			token:  func(t *testing.T) string { return sign(t, resultClaims()) },
			now:    testNow.Add(12 * time.Minute),
			target: ErrInvalidAssertion,
		},
		{
			name: "missing result",
			token: func(t *testing.T) string {
				c := resultClaims()
				c.Result = nil
				return sign(t, c)
			},
			now:    testNow,
			target: ErrMissingClaims,
		},
		{
			name: "missing amount",
			token: func(t *testing.T) string {
				c := resultClaims()
				c.Amount = decimal.NullDecimal{}
				return sign(t, c)
			},
			now:    testNow,
			target: ErrMissingClaims,
		},
		{
			name: "merchant mismatch",
			token: func(t *testing.T) string {
				c := resultClaims()
				c.MerchantID = "someone-else"
				return sign(t, c)
			},
			now:    testNow,
			target: ErrIdentifierMismatch,
		},
		{
			name: "application mismatch",
			token: func(t *testing.T) string {
				c := resultClaims()
				c.ApplicationID = "other-app"
				return sign(t, c)
			},
			now:    testNow,
			target: ErrIdentifierMismatch,
		},
		{
			name:   "garbage",
			token:  func(t *testing.T) string { return "not-a-jwt" },
			now:    testNow,
			target: ErrInvalidAssertion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clientAt(tt.now).VerifyResult(tt.token(t))
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
			if !apperr.IsKind(err, apperr.Unauthorized) {
				t.Fatalf("kind: %v", err)
			}
			if !IsVerificationError(err) {
				t.Fatal("IsVerificationError = false")
			}
		})
	}
}

func TestVerifyResultAllowsClockSkew(t *testing.T) {
	tok := sign(t, resultClaims())
	if _, err := clientAt(testNow.Add(10*time.Minute + 30*time.Second)).VerifyResult(tok); err != nil {
		t.Fatalf("30s past expiry should pass with leeway: %v", err)
	}
}

func TestExtractAssertion(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   url.Values
		query  url.Values
		want   string
	}{
		{"header wins", "Bearer h.h.h", url.Values{"jwt": {"b.b.b"}}, url.Values{"token": {"q.q.q"}}, "h.h.h"},
		{"lowercase bearer", "bearer h.h.h", nil, nil, "h.h.h"},
		{"body before query", "", url.Values{"_JWT": {"b.b.b"}}, url.Values{"jwt": {"q.q.q"}}, "b.b.b"},
		{"query fallback", "", nil, url.Values{"Assertion": {"q.q.q"}}, "q.q.q"},
		{"key order", "", url.Values{"token": {"t.t.t"}, "jwt": {"j.j.j"}}, nil, "j.j.j"},
		{"non bearer header ignored", "Basic abc", nil, url.Values{"_token": {"q.q.q"}}, "q.q.q"},
		{"blank values skipped", "", url.Values{"jwt": {"  "}}, url.Values{"token": {"q.q.q"}}, "q.q.q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractAssertion(tt.header, tt.body, tt.query)
			if err != nil {
				t.Fatalf("ExtractAssertion: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractAssertionMissing(t *testing.T) {
	_, err := ExtractAssertion("", url.Values{"status": {"ok"}}, nil)
	if !errors.Is(err, ErrNoAssertion) || !apperr.IsKind(err, apperr.Invalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"scheduleId":"sch-1"}`)
	sig := SignWebhookBody("hook-secret", body)

	if !VerifyWebhookSignature("hook-secret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if !VerifyWebhookSignature("hook-secret", body, "sha256="+sig) {
		t.Fatal("prefixed signature rejected")
	}
	if VerifyWebhookSignature("hook-secret", []byte(`{"scheduleId":"sch-2"}`), sig) {
		t.Fatal("tampered body accepted")
	}
	if VerifyWebhookSignature("", body, sig) || VerifyWebhookSignature("hook-secret", body, "zz") {
		t.Fatal("bad input accepted")
	}
}
