package users

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

// Payment status as seen on the user record.
const (
	PaymentStatusNone      = "none"
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Email string `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `gorm:"type:varchar(20);not null;default:'investor'" json:"role"`

	Tier          string `gorm:"type:varchar(32)" json:"tier"`
	PaymentMethod string `gorm:"column:payment_method;type:varchar(32)" json:"payment_method"`
	Amount        int64  `json:"amount"`
	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'none'" json:"payment_status"`

	Progress datatypes.JSON `gorm:"type:jsonb" json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasProgress reports whether a progress blob was ever written.
func (u User) HasProgress() bool {
	s := string(u.Progress)
	return s != "" && s != "null" && s != "{}"
}
