package access

func CapabilitiesFor(state AccessState) []string {
	switch state {
	case AccessActive:
		return []string{CapDashboard, CapProgress, CapPaymentHistory}
	case AccessSetupRequired:
		return []string{CapDashboard, CapProgress, CapPaymentHistory, CapSubscriptionSetup}
	case AccessLapsed:
		return []string{CapDashboard, CapPaymentHistory}
	case AccessPending:
		return []string{CapPaymentHistory}
	default:
		return []string{}
	}
}
