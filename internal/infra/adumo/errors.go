package adumo

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the gateway rejected our client credentials.
	ErrAuth = errors.New("adumo: client credentials rejected")

	ErrNoAssertion        = errors.New("adumo: no signed assertion in callback")
	ErrInvalidAssertion   = errors.New("adumo: invalid assertion")
	ErrMissingClaims      = errors.New("adumo: assertion missing required claims")
	ErrIdentifierMismatch = errors.New("adumo: assertion merchant/application mismatch")
	ErrMissingSubscriber  = errors.New("adumo: subscriber response carried no subscriber id")
	ErrMissingSchedule    = errors.New("adumo: schedule fallback returned no schedule id")
	ErrMissingCardToken   = errors.New("adumo: tokenization returned no token")
)

// APIError is a non-2xx response from the gateway REST API.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adumo %s: status %d: %s", e.Op, e.Status, e.Body)
}

var errMissingFormConfig = errors.New("adumo: form url or signing secret not configured")
