package store

import (
	"context"
	"strings"

	"ascendancy-backend/internal/domain/users"
)

func (s *Gorm) UserByID(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Gorm) UserByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	err := s.conn(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Gorm) CreateUser(ctx context.Context, u *users.User) error {
	u.Email = NormalizeEmail(u.Email)
	return s.conn(ctx).Create(u).Error
}

func (s *Gorm) UpdateUser(ctx context.Context, id uint, updates map[string]any) error {
	return s.conn(ctx).Model(&users.User{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Gorm) ListUsers(ctx context.Context, p Page) ([]users.User, int64, error) {
	p = p.normalized()
	var total int64
	if err := s.conn(ctx).Model(&users.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []users.User
	err := s.conn(ctx).Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error
	return out, total, err
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
