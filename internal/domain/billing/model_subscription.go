package billing

import "time"

type Subscription struct {
	ID                      uint               `gorm:"primaryKey" json:"id"`
	UserID                  uint               `gorm:"not null;index" json:"user_id"`
	PaymentID               uint               `gorm:"not null" json:"payment_id"`
	OriginMerchantReference string             `gorm:"column:origin_merchant_reference;type:varchar(64);not null;uniqueIndex:idx_subscriptions_origin_ref" json:"origin_merchant_reference"`
	Tier                    string             `gorm:"type:varchar(32);not null" json:"tier"`
	MonthlyAmount           int64              `gorm:"not null" json:"monthly_amount"`
	TotalMonths             int                `gorm:"not null" json:"total_months"`
	PaidMonths              int                `gorm:"not null;default:0" json:"paid_months"`
	CollectionDay           int                `gorm:"not null" json:"collection_day"`
	StartDate               time.Time          `json:"start_date"`
	GatewaySubscriberID     string             `gorm:"column:gateway_subscriber_id;type:varchar(96);not null" json:"gateway_subscriber_id"`
	GatewayScheduleID       string             `gorm:"column:gateway_schedule_id;type:varchar(96);not null;uniqueIndex:idx_subscriptions_schedule_id" json:"gateway_schedule_id"`
	Status                  SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// RemainingMonths is how many collections are still outstanding.
func (s Subscription) RemainingMonths() int {
	if s.PaidMonths >= s.TotalMonths {
		return 0
	}
	return s.TotalMonths - s.PaidMonths
}

// PaymentMethod is a tokenized card. Only masked metadata is kept.
type PaymentMethod struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ProfileToken string    `gorm:"column:profile_token;type:varchar(128);not null;uniqueIndex:idx_payment_methods_profile_token" json:"-"`
	CardToken    string    `gorm:"column:card_token;type:varchar(128);not null" json:"-"`
	Brand        string    `gorm:"type:varchar(20)" json:"brand"`
	Last4        string    `gorm:"type:varchar(4)" json:"last4"`
	ExpiryMonth  int       `json:"expiry_month"`
	ExpiryYear   int       `json:"expiry_year"`
	HolderName   string    `json:"holder_name"`
	CreatedAt    time.Time `json:"created_at"`
}
