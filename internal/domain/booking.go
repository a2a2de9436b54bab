package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentInitiated PaymentStatus = "Initiated"
	PaymentConfirmed PaymentStatus = "Confirmed"
	PaymentPaid      PaymentStatus = "Paid"
)

// Buyer identifies who a booking is for. Offline buyers are booked by an admin
// on behalf of someone without an account; UserID is then the admin's id.
type Buyer struct {
	UserID  int
	Name    string
	Email   string
	Offline bool
}

type BookingRequest struct {
	ShowID        int
	SeatIDs       []int
	Buyer         Buyer
	PaymentStatus PaymentStatus
}

type Booking struct {
	ID              int
	UserID          int
	ShowID          int
	ShowName        string
	ShowDate        time.Time
	NumberOfTickets int
	TotalPrice      decimal.Decimal
	PaymentStatus   PaymentStatus
	TransactionID   *string
	UpiID           *string
	BuyerName       *string
	BuyerEmail      *string
	TicketID        *int
	CreatedAt       time.Time
}

// BookingResult is everything a committed booking produced.
type BookingResult struct {
	Booking Booking
	Show    Show
	Seats   []Seat
	Tickets []Ticket
}

// TotalPrice is the price of count seats at the given unit price.
func TotalPrice(unit decimal.Decimal, count int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(count)))
}

type BookingFilters struct {
	Pagination
	From   *time.Time
	To     *time.Time
	Status *PaymentStatus
}

type BookingSummary struct {
	ShowID       int
	ShowName     string
	ShowDate     time.Time
	TotalTickets int
	TotalPrice   decimal.Decimal
}

// SeatRelease describes the outcome of an admin seat edit.
type SeatRelease struct {
	Booking  Booking
	Released []Seat
}

type BookingRepository interface {
	BookSeats(ctx context.Context, req BookingRequest) (*BookingResult, error)
	GetById(ctx context.Context, id int) (*Booking, error)
	GetByUser(ctx context.Context, userID int, filters BookingFilters) ([]Booking, *Metadata, error)
	GetAll(ctx context.Context, pagination Pagination) ([]Booking, *Metadata, error)
	GetSummaryByShow(ctx context.Context) ([]BookingSummary, error)
	InitiatePayment(ctx context.Context, id int, upiID string) error
	UpdatePaymentStatus(ctx context.Context, id int, status PaymentStatus, transactionID *string) error
	KeepSeats(ctx context.Context, bookingID int, keepSeatIDs []int) (*SeatRelease, error)
}
