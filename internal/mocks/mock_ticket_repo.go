package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockTicketRepo struct {
	domain.TicketRepository
	GetByIdFunc      func(ctx context.Context, id int) (*domain.Ticket, error)
	GetByBookingFunc func(ctx context.Context, bookingID int) ([]domain.Ticket, error)
	MarkScannedFunc  func(ctx context.Context, id int) (*domain.Ticket, bool, error)
	SetQRCodeFunc    func(ctx context.Context, id int, path string) error
}

func (m *MockTicketRepo) GetById(ctx context.Context, id int) (*domain.Ticket, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockTicketRepo) GetByBooking(ctx context.Context, bookingID int) ([]domain.Ticket, error) {
	return m.GetByBookingFunc(ctx, bookingID)
}

func (m *MockTicketRepo) MarkScanned(ctx context.Context, id int) (*domain.Ticket, bool, error) {
	return m.MarkScannedFunc(ctx, id)
}

func (m *MockTicketRepo) SetQRCode(ctx context.Context, id int, path string) error {
	return m.SetQRCodeFunc(ctx, id, path)
}
