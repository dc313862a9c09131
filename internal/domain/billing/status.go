package billing

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusError     PaymentStatus = "error"
)

// CanTransitionTo enforces the payment state machine. Completed is terminal;
// a failed or errored attempt may still complete when the investor retries
// on the same hosted form.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed || next == StatusError
	case StatusFailed:
		return next == StatusCompleted
	case StatusError:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

func (s PaymentStatus) Terminal() bool { return s == StatusCompleted }

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCompleted SubscriptionStatus = "COMPLETED"
	SubscriptionFailed    SubscriptionStatus = "FAILED"
)
