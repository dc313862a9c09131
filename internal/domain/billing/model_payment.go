package billing

import (
	"time"

	"ascendancy-backend/internal/domain/users"

	"gorm.io/datatypes"
)

type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	User              users.User     `json:"-"`
	MerchantReference string         `gorm:"column:merchant_reference;type:varchar(64);not null;uniqueIndex:idx_payments_merchant_reference" json:"merchant_reference"`
	Amount            int64          `gorm:"not null" json:"amount"`
	Method            Method         `gorm:"type:varchar(32);not null" json:"method"`
	Status            PaymentStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentData       datatypes.JSON `gorm:"type:jsonb" json:"-"`

	GatewayTransactionIndex *string    `gorm:"column:gateway_transaction_index" json:"gateway_transaction_index,omitempty"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invoice is created lazily the first time a payment outcome is reconciled.
type Invoice struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	PaymentID         *uint     `gorm:"index" json:"payment_id,omitempty"`
	SubscriptionID    *uint     `gorm:"index" json:"subscription_id,omitempty"`
	MerchantReference string    `gorm:"column:merchant_reference;type:varchar(96);not null;uniqueIndex:idx_invoices_merchant_reference" json:"merchant_reference"`
	Amount            int64     `gorm:"not null" json:"amount"`
	Status            string    `gorm:"type:varchar(20);not null;default:'paid'" json:"status"`
	IssuedAt          time.Time `json:"issued_at"`
}

// Transaction is an immutable audit entry of one gateway response.
type Transaction struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	InvoiceID         uint           `gorm:"not null;index" json:"invoice_id"`
	MerchantReference string         `gorm:"column:merchant_reference;type:varchar(96);not null;uniqueIndex:idx_transactions_merchant_reference" json:"merchant_reference"`
	Amount            int64          `gorm:"not null" json:"amount"`
	ResultCode        int            `json:"result_code"`
	GatewayStatus     string         `gorm:"type:varchar(32)" json:"gateway_status"`
	TransactionIndex  string         `gorm:"type:varchar(96)" json:"transaction_index"`
	Channel           string         `gorm:"type:varchar(20)" json:"channel"`
	RawClaims         datatypes.JSON `gorm:"type:jsonb" json:"-"`
	RawPayload        datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
}
