package users

import "time"

// OTP is a one-time login code. Only the bcrypt hash of the code is stored.
type OTP struct {
	ID        uint       `gorm:"primaryKey"`
	Email     string     `gorm:"not null;index"`
	CodeHash  string     `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (OTP) TableName() string { return "otps" }

// Usable reports whether the code can still be redeemed at now.
func (o OTP) Usable(now time.Time) bool {
	return o.UsedAt == nil && now.Before(o.ExpiresAt)
}
