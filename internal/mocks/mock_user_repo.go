package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockUserRepo struct {
	domain.UserRepository
	CreateWithTokenFunc func(ctx context.Context, user *domain.User, fn func(*domain.User) (*domain.Token, error)) (*domain.Token, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*domain.User, error)
	GetByLoginFunc      func(ctx context.Context, login string) (*domain.User, error)
	GetByIdFunc         func(ctx context.Context, id int) (*domain.User, error)
	GetAllFunc          func(ctx context.Context, pagination domain.Pagination) ([]domain.User, *domain.Metadata, error)
	UpdateFunc          func(ctx context.Context, user *domain.User) error
	VerifyEmailFunc     func(ctx context.Context, user *domain.User) error
	ResetPasswordFunc   func(ctx context.Context, user *domain.User) error
	UpdateRoleFunc      func(ctx context.Context, id int, role domain.Role) error
}

func (m *MockUserRepo) CreateWithToken(
	ctx context.Context,
	user *domain.User,
	fn func(*domain.User) (*domain.Token, error)) (*domain.Token, error) {

	return m.CreateWithTokenFunc(ctx, user, fn)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *MockUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return m.GetByLoginFunc(ctx, login)
}

func (m *MockUserRepo) GetById(ctx context.Context, id int) (*domain.User, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockUserRepo) GetAll(ctx context.Context, pagination domain.Pagination) ([]domain.User, *domain.Metadata, error) {
	return m.GetAllFunc(ctx, pagination)
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.UpdateFunc(ctx, user)
}

func (m *MockUserRepo) VerifyEmail(ctx context.Context, user *domain.User) error {
	return m.VerifyEmailFunc(ctx, user)
}

func (m *MockUserRepo) ResetPassword(ctx context.Context, user *domain.User) error {
	return m.ResetPasswordFunc(ctx, user)
}

func (m *MockUserRepo) UpdateRole(ctx context.Context, id int, role domain.Role) error {
	return m.UpdateRoleFunc(ctx, id, role)
}
