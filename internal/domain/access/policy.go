package access

import (
	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"
)

type Policy struct {
	State        AccessState
	Capabilities []string
}

func ComputePolicy(u users.User, subs []billing.Subscription) Policy {
	state := ComputeEffectiveAccessState(u, subs)

	return Policy{
		State:        state,
		Capabilities: CapabilitiesFor(state),
	}
}

func (p Policy) Can(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
