package adumo

import (
	"strings"

	"ascendancy-backend/internal/domain/billing"
)

// Result codes carried in the gateway's result assertion.
const (
	ResultSuccess = 0
	ResultWarning = 1
	ResultFailed  = -1
)

// MapResult collapses the gateway's composite result into one local status.
// The textual status wins; the numeric result code is only a fallback.
func MapResult(status string, resultCode *int) billing.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "AUTHORISED", "AUTHORIZED", "SETTLED", "APPROVED", "SUCCESS", "SUCCESSFUL", "COMPLETED":
		return billing.StatusCompleted
	case "DECLINED", "FAILED", "FAILURE", "CANCELLED", "CANCELED", "REVERSED", "VOIDED", "ERROR", "REJECTED":
		return billing.StatusFailed
	case "PENDING", "PROCESSING", "IN_PROGRESS", "3DS_PENDING":
		return billing.StatusPending
	}

	if resultCode == nil {
		return billing.StatusPending
	}
	switch *resultCode {
	case ResultSuccess:
		return billing.StatusCompleted
	case ResultFailed:
		return billing.StatusFailed
	default:
		return billing.StatusPending
	}
}
