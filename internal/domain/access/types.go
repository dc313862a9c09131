package access

type AccessState string

const (
	AccessLocked        AccessState = "locked"         // no payment yet
	AccessPending       AccessState = "pending"        // awaiting gateway result
	AccessSetupRequired AccessState = "setup_required" // deposit paid, no monthly schedule
	AccessActive        AccessState = "active"
	AccessLapsed        AccessState = "lapsed" // monthly schedule failed
)

const (
	CapDashboard         = "dashboard"
	CapProgress          = "progress"
	CapPaymentHistory    = "payment_history"
	CapSubscriptionSetup = "subscription_setup"
)
