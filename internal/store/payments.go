package store

import (
	"context"

	"ascendancy-backend/internal/domain/billing"

	"gorm.io/gorm/clause"
)

func (s *Gorm) CreatePayment(ctx context.Context, p *billing.Payment) error {
	return s.conn(ctx).Omit(clause.Associations).Create(p).Error
}

func (s *Gorm) PaymentByReference(ctx context.Context, mref string) (*billing.Payment, error) {
	var p billing.Payment
	if err := s.conn(ctx).Where("merchant_reference = ?", mref).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Gorm) LockPaymentByReference(ctx context.Context, mref string) (*billing.Payment, error) {
	var p billing.Payment
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_reference = ?", mref).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Gorm) UpdatePayment(ctx context.Context, id uint, updates map[string]any) error {
	return s.conn(ctx).Model(&billing.Payment{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Gorm) PaymentsForUser(ctx context.Context, userID uint) ([]billing.Payment, error) {
	var out []billing.Payment
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *Gorm) CountCompletedPayments(ctx context.Context, userID uint, excludeID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&billing.Payment{}).
		Where("user_id = ? AND status = ? AND id <> ?", userID, billing.StatusCompleted, excludeID).
		Count(&n).Error
	return n, err
}

func (s *Gorm) ListPayments(ctx context.Context, p Page) ([]billing.Payment, int64, error) {
	p = p.normalized()
	var total int64
	if err := s.conn(ctx).Model(&billing.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []billing.Payment
	err := s.conn(ctx).Preload("User").Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error
	return out, total, err
}

// FirstOrCreateInvoice loads the invoice for inv.MerchantReference into inv,
// creating it from inv when none exists.
func (s *Gorm) FirstOrCreateInvoice(ctx context.Context, inv *billing.Invoice) error {
	return s.conn(ctx).
		Where(billing.Invoice{MerchantReference: inv.MerchantReference}).
		FirstOrCreate(inv).Error
}

func (s *Gorm) InsertTransaction(ctx context.Context, t *billing.Transaction) (bool, error) {
	res := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "merchant_reference"}},
			DoNothing: true,
		}).
		Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Gorm) CountTransactions(ctx context.Context, mref string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&billing.Transaction{}).Where("merchant_reference = ?", mref).Count(&n).Error
	return n, err
}
