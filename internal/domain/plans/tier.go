package plans

import (
	"sort"
	"strings"
)

// Tier keys (single source of truth)
const (
	TierBuilder   = "builder"
	TierInnovator = "innovator"
	TierVisionary = "visionary"
)

// Tier describes one investment tier. All amounts are ZAR cents.
type Tier struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	LumpSum       int64  `json:"lump_sum"`
	Deposit       int64  `json:"deposit"`
	MonthlyAmount int64  `json:"monthly_amount"`
	TotalMonths   int    `json:"total_months"`
	// Projected annual return in basis points (800 = 8%).
	AnnualReturnBps int64 `json:"annual_return_bps"`
}

var catalog = map[string]Tier{
	TierBuilder: {
		Key:             TierBuilder,
		Name:            "Builder",
		LumpSum:         1_200_000,
		Deposit:         300_000,
		MonthlyAmount:   75_000,
		TotalMonths:     12,
		AnnualReturnBps: 800,
	},
	TierInnovator: {
		Key:             TierInnovator,
		Name:            "Innovator",
		LumpSum:         2_400_000,
		Deposit:         600_000,
		MonthlyAmount:   150_000,
		TotalMonths:     12,
		AnnualReturnBps: 1000,
	},
	TierVisionary: {
		Key:             TierVisionary,
		Name:            "Visionary",
		LumpSum:         6_000_000,
		Deposit:         1_500_000,
		MonthlyAmount:   375_000,
		TotalMonths:     12,
		AnnualReturnBps: 1200,
	},
}

// Lookup returns the tier for a key, ignoring case and surrounding space.
func Lookup(key string) (Tier, bool) {
	t, ok := catalog[strings.ToLower(strings.TrimSpace(key))]
	return t, ok
}

// All returns the catalog ordered by lump sum price.
func All() []Tier {
	out := make([]Tier, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LumpSum < out[j].LumpSum })
	return out
}

// InstallmentTotal is what a deposit_monthly investor pays over the full plan.
func (t Tier) InstallmentTotal() int64 {
	return t.Deposit + t.MonthlyAmount*int64(t.TotalMonths)
}
