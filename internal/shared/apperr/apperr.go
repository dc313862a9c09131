package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Invalid        Kind = "invalid"
	NotFound       Kind = "not_found"
	Unauthorized   Kind = "unauthorized"
	Forbidden      Kind = "forbidden"
	Conflict       Kind = "conflict"
	Gateway        Kind = "gateway"
	AmountMismatch Kind = "amount_mismatch"
	Configuration  Kind = "configuration"
	RateLimited    Kind = "rate_limited"
	Internal       Kind = "internal"
)

const genericMessage = "Something went wrong. Please try again."

type AppError struct {
	Kind      Kind
	PublicMsg string            // safe to show to the client
	Fields    map[string]string // field-level validation detail
	Status    int               // upstream status for gateway errors
	Err       error             // internal cause, logged only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.PublicMsg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

func ValidationErr(publicMsg string, fields map[string]string) *AppError {
	return &AppError{Kind: Invalid, PublicMsg: publicMsg, Fields: fields}
}

func NotFoundErr(publicMsg string) *AppError {
	return &AppError{Kind: NotFound, PublicMsg: publicMsg}
}

func AuthErr(publicMsg string, cause error) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: publicMsg, Err: cause}
}

func ForbiddenErr(publicMsg string) *AppError {
	return &AppError{Kind: Forbidden, PublicMsg: publicMsg}
}

func ConflictErr(publicMsg string) *AppError {
	return &AppError{Kind: Conflict, PublicMsg: publicMsg}
}

// GatewayErr wraps an upstream rejection. status is the upstream HTTP status
// (0 when the call never got a response).
func GatewayErr(status int, cause error) *AppError {
	return &AppError{
		Kind:      Gateway,
		PublicMsg: "The payment provider could not process the request. Please try again.",
		Status:    status,
		Err:       cause,
	}
}

func AmountMismatchErr(expected, got int64) *AppError {
	return &AppError{
		Kind:      AmountMismatch,
		PublicMsg: "Payment could not be verified.",
		Err:       fmt.Errorf("amount mismatch: expected %d, got %d", expected, got),
	}
}

func ConfigurationErr(cause error) *AppError {
	return &AppError{Kind: Configuration, PublicMsg: genericMessage, Err: cause}
}

func RateLimitedErr() *AppError {
	return &AppError{Kind: RateLimited, PublicMsg: "Too many requests. Please try again later."}
}

// Wrap marks an internal error without a public message (500).
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: genericMessage, Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == k
}

func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Invalid:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case AmountMismatch:
		return http.StatusUnprocessableEntity
	case RateLimited:
		return http.StatusTooManyRequests
	case Gateway:
		if ae.Status >= 400 && ae.Status <= 599 {
			return ae.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return genericMessage
}
