package users

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/plans"
	"ascendancy-backend/internal/domain/users"
)

const projectionYears = 5

func BuildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         stringPtrIfNotEmpty(u.Phone),
		Role:          u.Role,
		PaymentStatus: u.PaymentStatus,
		PaymentMethod: u.PaymentMethod,
		Amount:        u.Amount,
	}
}

func BuildTierDTO(key string) *TierDTO {
	t, ok := plans.Lookup(key)
	if !ok {
		return nil
	}
	return &TierDTO{
		Key:             t.Key,
		Name:            t.Name,
		LumpSum:         t.LumpSum,
		Deposit:         t.Deposit,
		MonthlyAmount:   t.MonthlyAmount,
		TotalMonths:     t.TotalMonths,
		AnnualReturnBps: t.AnnualReturnBps,
	}
}

// BuildSubscriptionDTO picks the most relevant schedule: an active one if
// there is one, otherwise the newest.
func BuildSubscriptionDTO(subs []billing.Subscription) *SubscriptionDTO {
	if len(subs) == 0 {
		return nil
	}
	s := subs[0]
	for _, candidate := range subs {
		if candidate.Status == billing.SubscriptionActive {
			s = candidate
			break
		}
	}
	return &SubscriptionDTO{
		Status:          string(s.Status),
		MonthlyAmount:   s.MonthlyAmount,
		TotalMonths:     s.TotalMonths,
		PaidMonths:      s.PaidMonths,
		RemainingMonths: s.RemainingMonths(),
		CollectionDay:   s.CollectionDay,
		StartsAt:        s.StartDate,
		ScheduleID:      s.GatewayScheduleID,
	}
}

func BuildProgress(u users.User) json.RawMessage {
	if !u.HasProgress() {
		return json.RawMessage("null")
	}
	return json.RawMessage(u.Progress)
}

// Invested is what has actually been collected: completed payments plus
// every recorded monthly collection.
func Invested(payments []billing.Payment, subs []billing.Subscription) int64 {
	var total int64
	for _, p := range payments {
		if p.Status == billing.StatusCompleted {
			total += p.Amount
		}
	}
	for _, s := range subs {
		total += s.MonthlyAmount * int64(s.PaidMonths)
	}
	return total
}

// Committed is the full amount the investor signed up for.
func Committed(u users.User, t *TierDTO) int64 {
	if t == nil {
		return u.Amount
	}
	if u.PaymentMethod == string(billing.MethodDepositMonthly) {
		return t.Deposit + t.MonthlyAmount*int64(t.TotalMonths)
	}
	return t.LumpSum
}

// Project compounds principal annually at bps basis points.
func Project(principal int64, bps int64, years int) []ProjectionYear {
	rate := decimal.NewFromInt(bps).Shift(-4)
	factor := decimal.NewFromInt(1).Add(rate)

	out := make([]ProjectionYear, 0, years)
	value := decimal.NewFromInt(principal)
	for y := 1; y <= years; y++ {
		value = value.Mul(factor)
		out = append(out, ProjectionYear{Year: y, Value: value.Round(0).IntPart()})
	}
	return out
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
