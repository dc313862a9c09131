package access

import (
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
)

// Effective access for UI/product: locked|pending|setup_required|active|lapsed
func ComputeEffectiveAccessState(u users.User, subs []billing.Subscription) AccessState {
	switch u.PaymentStatus {
	case users.PaymentStatusCompleted:
	case users.PaymentStatusPending:
		return AccessPending
	default:
		return AccessLocked
	}

	if u.PaymentMethod != string(billing.MethodDepositMonthly) {
		return AccessActive
	}

	// Deposit investors also need a live monthly schedule
	if len(subs) == 0 {
		return AccessSetupRequired
	}
	for _, s := range subs {
		if s.Status == billing.SubscriptionActive || s.Status == billing.SubscriptionCompleted {
			return AccessActive
		}
	}
	return AccessLapsed
}
