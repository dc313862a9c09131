package adumo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ascendancy-backend/internal/shared/apperr"
)

const (
	assertionTTL = 10 * time.Minute
	clockLeeway  = 60 * time.Second
)

// assertionKeys are the field names a callback may carry its assertion
// under, in lookup order.
var assertionKeys = []string{"jwt", "_jwt", "token", "_token", "assertion"}

// FormClaims is the assertion we sign for the hosted payment form.
type FormClaims struct {
	MerchantID        string `json:"cuid"`
	ApplicationID     string `json:"auid"`
	Amount            string `json:"amount"`
	MerchantReference string `json:"mref"`
	jwt.RegisteredClaims
}

// ResultClaims is the assertion the gateway sends back on the return URL
// and the notification webhook.
type ResultClaims struct {
	MerchantID        string              `json:"cuid"`
	ApplicationID     string              `json:"auid"`
	MerchantReference string              `json:"mref"`
	Amount            decimal.NullDecimal `json:"amount"`
	Result            *int                `json:"result,omitempty"`
	Status            string              `json:"status,omitempty"`
	TransactionIndex  FlexString          `json:"tx_index,omitempty"`
	ProfileToken      string              `json:"puid,omitempty"`
	jwt.RegisteredClaims
}

// AmountMinor is the claimed amount in cents.
func (r *ResultClaims) AmountMinor() int64 {
	return ToMinorUnits(r.Amount.Decimal)
}

// ResultCode returns the numeric result, or nil when it was not sent.
func (r *ResultClaims) ResultCode() *int { return r.Result }

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tx_index: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// SignFormAssertion signs the outbound assertion for one payment.
func (c *Client) SignFormAssertion(mref string, amountMinor int64) (string, error) {
	now := c.now()
	claims := FormClaims{
		MerchantID:        c.cfg.MerchantID,
		ApplicationID:     c.cfg.ApplicationID,
		Amount:            FormatMajorUnits(amountMinor),
		MerchantReference: mref,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.ApplicationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.Secret))
}

// SignResultAssertion signs a result assertion the way the gateway does.
// Used by the mock callback tool and tests.
func SignResultAssertion(secret string, claims ResultClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ExtractAssertion finds the signed assertion on a callback. The
// Authorization bearer token wins, then body fields, then query fields.
// Field names are matched case-insensitively.
func ExtractAssertion(authHeader string, body, query url.Values) (string, error) {
	if h := strings.TrimSpace(authHeader); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if tok := strings.TrimSpace(h[7:]); tok != "" {
			return tok, nil
		}
	}
	if tok := lookupAssertion(body); tok != "" {
		return tok, nil
	}
	if tok := lookupAssertion(query); tok != "" {
		return tok, nil
	}
	return "", &apperr.AppError{Kind: apperr.Invalid, PublicMsg: "Missing payment verification token.", Err: ErrNoAssertion}
}

func lookupAssertion(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	for _, want := range assertionKeys {
		for k, vals := range v {
			if !strings.EqualFold(k, want) {
				continue
			}
			for _, s := range vals {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// VerifyResult checks the signature, expiry, required claims and that the
// assertion was issued for our merchant and application.
func (c *Client) VerifyResult(token string) (*ResultClaims, error) {
	claims := &ResultClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(c.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, verifyErr(fmt.Errorf("%w: %v", ErrInvalidAssertion, err))
	}

	var missing []string
	if claims.Issuer == "" {
		missing = append(missing, "iss")
	}
	if claims.MerchantID == "" {
		missing = append(missing, "cuid")
	}
	if claims.ApplicationID == "" {
		missing = append(missing, "auid")
	}
	if claims.MerchantReference == "" {
		missing = append(missing, "mref")
	}
	if !claims.Amount.Valid {
		missing = append(missing, "amount")
	}
	if claims.Result == nil {
		missing = append(missing, "result")
	}
	if len(missing) > 0 {
		return nil, verifyErr(fmt.Errorf("%w: %s", ErrMissingClaims, strings.Join(missing, ",")))
	}

	if claims.MerchantID != c.cfg.MerchantID || claims.ApplicationID != c.cfg.ApplicationID {
		c.log.Warn("assertion identifiers do not match configuration",
			zap.String("merchant_reference", claims.MerchantReference),
			zap.String("cuid", claims.MerchantID),
			zap.String("auid", claims.ApplicationID),
		)
		return nil, verifyErr(ErrIdentifierMismatch)
	}
	return claims, nil
}

func verifyErr(cause error) *apperr.AppError {
	return apperr.AuthErr("Payment could not be verified.", cause)
}

// IsVerificationError reports whether err came from assertion checks.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrInvalidAssertion) ||
		errors.Is(err, ErrMissingClaims) ||
		errors.Is(err, ErrIdentifierMismatch)
}
