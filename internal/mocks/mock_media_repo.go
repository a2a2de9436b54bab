package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockMediaRepo struct {
	CreateFunc  func(ctx context.Context, media *domain.MediaFile) error
	GetByIdFunc func(ctx context.Context, id int) (*domain.MediaFile, error)
	DeleteFunc  func(ctx context.Context, id int) error
}

func (m *MockMediaRepo) Create(ctx context.Context, media *domain.MediaFile) error {
	return m.CreateFunc(ctx, media)
}

func (m *MockMediaRepo) GetById(ctx context.Context, id int) (*domain.MediaFile, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockMediaRepo) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}
