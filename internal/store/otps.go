package store

import (
	"context"
	"time"

	"ascendancy-backend/internal/domain/users"
)

func (s *Gorm) CreateOTP(ctx context.Context, o *users.OTP) error {
	o.Email = NormalizeEmail(o.Email)
	return s.conn(ctx).Create(o).Error
}

func (s *Gorm) DeleteUnusedOTPs(ctx context.Context, email string) error {
	return s.conn(ctx).
		Where("email = ? AND used_at IS NULL", NormalizeEmail(email)).
		Delete(&users.OTP{}).Error
}

func (s *Gorm) ActiveOTPs(ctx context.Context, email string, now time.Time) ([]users.OTP, error) {
	var out []users.OTP
	err := s.conn(ctx).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", NormalizeEmail(email), now).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Gorm) MarkOTPUsed(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := s.conn(ctx).Model(&users.OTP{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PurgeOTPs removes expired codes and codes that were already redeemed.
func (s *Gorm) PurgeOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&users.OTP{})
	return res.RowsAffected, res.Error
}
