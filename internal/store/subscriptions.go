package store

import (
	"context"

	"ascendancy-backend/internal/domain/billing"

	"gorm.io/gorm/clause"
)

func (s *Gorm) CreateSubscription(ctx context.Context, sub *billing.Subscription) error {
	return s.conn(ctx).Create(sub).Error
}

func (s *Gorm) SubscriptionByOrigin(ctx context.Context, mref string) (*billing.Subscription, error) {
	var sub billing.Subscription
	if err := s.conn(ctx).Where("origin_merchant_reference = ?", mref).First(&sub).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Gorm) LockSubscriptionBySchedule(ctx context.Context, scheduleID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_schedule_id = ?", scheduleID).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Gorm) SubscriptionsForUser(ctx context.Context, userID uint) ([]billing.Subscription, error) {
	var out []billing.Subscription
	err := s.conn(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&out).Error
	return out, err
}

func (s *Gorm) UpdateSubscription(ctx context.Context, id uint, updates map[string]any) error {
	return s.conn(ctx).Model(&billing.Subscription{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Gorm) ListSubscriptions(ctx context.Context, p Page) ([]billing.Subscription, int64, error) {
	p = p.normalized()
	var total int64
	if err := s.conn(ctx).Model(&billing.Subscription{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []billing.Subscription
	err := s.conn(ctx).Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error
	return out, total, err
}

// SavePaymentMethod upserts by profile token so re-tokenizing the same card
// refreshes its metadata instead of failing.
func (s *Gorm) SavePaymentMethod(ctx context.Context, pm *billing.PaymentMethod) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "profile_token"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "card_token", "brand", "last4", "expiry_month", "expiry_year", "holder_name",
			}),
		}).
		Create(pm).Error
}

func (s *Gorm) PaymentMethodsForUser(ctx context.Context, userID uint) ([]billing.PaymentMethod, error) {
	var out []billing.PaymentMethod
	err := s.conn(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&out).Error
	return out, err
}
