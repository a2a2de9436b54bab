package mocks

import (
	"context"
	"time"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockShowRepo struct {
	domain.ShowRepository
	CreateWithSeatsFunc func(ctx context.Context, show *domain.Show, layout func(*domain.Show) []domain.Seat) error
	GetByIdFunc         func(ctx context.Context, id int) (*domain.Show, error)
	GetBySlugFunc       func(ctx context.Context, slug string) (*domain.ShowDetail, error)
	GetUpcomingFunc     func(ctx context.Context, from time.Time, pagination domain.Pagination) ([]domain.ShowWithStats, *domain.Metadata, error)
	GetAllWithStatsFunc func(ctx context.Context) ([]domain.ShowWithStats, error)
	UpdateFunc          func(ctx context.Context, show *domain.Show) error
	DeleteFunc          func(ctx context.Context, id int) error
	SetImageFunc        func(ctx context.Context, id int, kind domain.ImageKind, path string) error
	SetQRCodeFunc       func(ctx context.Context, id int, path string) error
}

func (m *MockShowRepo) CreateWithSeats(
	ctx context.Context,
	show *domain.Show,
	layout func(*domain.Show) []domain.Seat) error {

	return m.CreateWithSeatsFunc(ctx, show, layout)
}

func (m *MockShowRepo) GetById(ctx context.Context, id int) (*domain.Show, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockShowRepo) GetBySlug(ctx context.Context, slug string) (*domain.ShowDetail, error) {
	return m.GetBySlugFunc(ctx, slug)
}

func (m *MockShowRepo) GetUpcoming(
	ctx context.Context,
	from time.Time,
	pagination domain.Pagination) ([]domain.ShowWithStats, *domain.Metadata, error) {

	return m.GetUpcomingFunc(ctx, from, pagination)
}

func (m *MockShowRepo) GetAllWithStats(ctx context.Context) ([]domain.ShowWithStats, error) {
	return m.GetAllWithStatsFunc(ctx)
}

func (m *MockShowRepo) Update(ctx context.Context, show *domain.Show) error {
	return m.UpdateFunc(ctx, show)
}

func (m *MockShowRepo) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockShowRepo) SetImage(ctx context.Context, id int, kind domain.ImageKind, path string) error {
	return m.SetImageFunc(ctx, id, kind, path)
}

func (m *MockShowRepo) SetQRCode(ctx context.Context, id int, path string) error {
	return m.SetQRCodeFunc(ctx, id, path)
}
