package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

type MockBookingRepo struct {
	domain.BookingRepository
	BookSeatsFunc           func(ctx context.Context, req domain.BookingRequest) (*domain.BookingResult, error)
	GetByIdFunc             func(ctx context.Context, id int) (*domain.Booking, error)
	GetByUserFunc           func(ctx context.Context, userID int, filters domain.BookingFilters) ([]domain.Booking, *domain.Metadata, error)
	GetAllFunc              func(ctx context.Context, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error)
	GetSummaryByShowFunc    func(ctx context.Context) ([]domain.BookingSummary, error)
	InitiatePaymentFunc     func(ctx context.Context, id int, upiID string) error
	UpdatePaymentStatusFunc func(ctx context.Context, id int, status domain.PaymentStatus, transactionID *string) error
	KeepSeatsFunc           func(ctx context.Context, bookingID int, keepSeatIDs []int) (*domain.SeatRelease, error)
}

func (m *MockBookingRepo) BookSeats(ctx context.Context, req domain.BookingRequest) (*domain.BookingResult, error) {
	return m.BookSeatsFunc(ctx, req)
}

func (m *MockBookingRepo) GetById(ctx context.Context, id int) (*domain.Booking, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockBookingRepo) GetByUser(
	ctx context.Context,
	userID int,
	filters domain.BookingFilters) ([]domain.Booking, *domain.Metadata, error) {

	return m.GetByUserFunc(ctx, userID, filters)
}

func (m *MockBookingRepo) GetAll(ctx context.Context, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {
	return m.GetAllFunc(ctx, pagination)
}

func (m *MockBookingRepo) GetSummaryByShow(ctx context.Context) ([]domain.BookingSummary, error) {
	return m.GetSummaryByShowFunc(ctx)
}

func (m *MockBookingRepo) InitiatePayment(ctx context.Context, id int, upiID string) error {
	return m.InitiatePaymentFunc(ctx, id, upiID)
}

func (m *MockBookingRepo) UpdatePaymentStatus(
	ctx context.Context,
	id int,
	status domain.PaymentStatus,
	transactionID *string) error {

	return m.UpdatePaymentStatusFunc(ctx, id, status, transactionID)
}

func (m *MockBookingRepo) KeepSeats(ctx context.Context, bookingID int, keepSeatIDs []int) (*domain.SeatRelease, error) {
	return m.KeepSeatsFunc(ctx, bookingID, keepSeatIDs)
}
