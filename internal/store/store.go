// Package store is the payment record store. Merchant-reference uniqueness
// is enforced by the schema, so replayed callbacks cannot create duplicate
// invoices or transactions even when application checks race.
package store

import (
	"context"
	"errors"
	"time"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/domain/users"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Page is a simple offset window for admin listings.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type Users interface {
	UserByID(ctx context.Context, id uint) (*users.User, error)
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	CreateUser(ctx context.Context, u *users.User) error
	UpdateUser(ctx context.Context, id uint, updates map[string]any) error
	ListUsers(ctx context.Context, p Page) ([]users.User, int64, error)
}

type Payments interface {
	CreatePayment(ctx context.Context, p *billing.Payment) error
	PaymentByReference(ctx context.Context, mref string) (*billing.Payment, error)
	// LockPaymentByReference reads the payment FOR UPDATE. Only meaningful
	// inside Tx.
	LockPaymentByReference(ctx context.Context, mref string) (*billing.Payment, error)
	UpdatePayment(ctx context.Context, id uint, updates map[string]any) error
	PaymentsForUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	CountCompletedPayments(ctx context.Context, userID uint, excludeID uint) (int64, error)
	ListPayments(ctx context.Context, p Page) ([]billing.Payment, int64, error)

	FirstOrCreateInvoice(ctx context.Context, inv *billing.Invoice) error
	// InsertTransaction reports false when a transaction already exists for
	// the merchant reference.
	InsertTransaction(ctx context.Context, t *billing.Transaction) (bool, error)
	CountTransactions(ctx context.Context, mref string) (int64, error)
}

type Subscriptions interface {
	CreateSubscription(ctx context.Context, s *billing.Subscription) error
	SubscriptionByOrigin(ctx context.Context, mref string) (*billing.Subscription, error)
	LockSubscriptionBySchedule(ctx context.Context, scheduleID string) (*billing.Subscription, error)
	SubscriptionsForUser(ctx context.Context, userID uint) ([]billing.Subscription, error)
	UpdateSubscription(ctx context.Context, id uint, updates map[string]any) error
	ListSubscriptions(ctx context.Context, p Page) ([]billing.Subscription, int64, error)

	SavePaymentMethod(ctx context.Context, pm *billing.PaymentMethod) error
	PaymentMethodsForUser(ctx context.Context, userID uint) ([]billing.PaymentMethod, error)
}

type OTPs interface {
	CreateOTP(ctx context.Context, o *users.OTP) error
	DeleteUnusedOTPs(ctx context.Context, email string) error
	ActiveOTPs(ctx context.Context, email string, now time.Time) ([]users.OTP, error)
	// MarkOTPUsed reports false when another request consumed the code first.
	MarkOTPUsed(ctx context.Context, id uint, now time.Time) (bool, error)
	PurgeOTPs(ctx context.Context, now time.Time) (int64, error)
}

type Store interface {
	Users
	Payments
	Subscriptions
	OTPs
	// Tx runs fn inside one database transaction.
	Tx(ctx context.Context, fn func(Store) error) error
}

type Gorm struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Tx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func (s *Gorm) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
