package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockSeatRepo struct {
	GetByShowFunc func(ctx context.Context, showID int) ([]domain.Seat, error)
	GetStatsFunc  func(ctx context.Context, showID int) (*domain.SeatStats, error)
}

func (m *MockSeatRepo) GetByShow(ctx context.Context, showID int) ([]domain.Seat, error) {
	return m.GetByShowFunc(ctx, showID)
}

func (m *MockSeatRepo) GetStats(ctx context.Context, showID int) (*domain.SeatStats, error) {
	return m.GetStatsFunc(ctx, showID)
}
