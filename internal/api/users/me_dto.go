package users

import (
	"encoding/json"
	"time"

	"ascendancy-backend/internal/domain/billing"
)

type MeResponse struct {
	User           UserDTO                 `json:"user"`
	Tier           *TierDTO                `json:"tier"`
	Payments       []billing.Payment       `json:"payments"`
	Subscription   *SubscriptionDTO        `json:"subscription"`
	PaymentMethods []billing.PaymentMethod `json:"payment_methods"`
	Progress       json.RawMessage         `json:"progress"`
	Access         AccessDTO               `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID            uint    `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Phone         *string `json:"phone"`
	Role          string  `json:"role"`
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod string  `json:"payment_method"`
	Amount        int64   `json:"amount"`
}

/* ---------- BILLING ---------- */

type TierDTO struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	LumpSum         int64  `json:"lump_sum"`
	Deposit         int64  `json:"deposit"`
	MonthlyAmount   int64  `json:"monthly_amount"`
	TotalMonths     int    `json:"total_months"`
	AnnualReturnBps int64  `json:"annual_return_bps"`
}

type SubscriptionDTO struct {
	Status          string    `json:"status"`
	MonthlyAmount   int64     `json:"monthly_amount"`
	TotalMonths     int       `json:"total_months"`
	PaidMonths      int       `json:"paid_months"`
	RemainingMonths int       `json:"remaining_months"`
	CollectionDay   int       `json:"collection_day"`
	StartsAt        time.Time `json:"starts_at"`
	ScheduleID      string    `json:"schedule_id"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State        string   `json:"state"` // locked|pending|setup_required|active|lapsed
	Capabilities []string `json:"capabilities"`
}

/* ---------- DASHBOARD ---------- */

type DashboardResponse struct {
	Tier         *TierDTO         `json:"tier"`
	Invested     int64            `json:"invested"`
	Committed    int64            `json:"committed"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Projection   []ProjectionYear `json:"projection"`
}

// ProjectionYear is the projected value at the end of a year, ZAR cents.
type ProjectionYear struct {
	Year  int   `json:"year"`
	Value int64 `json:"value"`
}
