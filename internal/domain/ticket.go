package domain

import (
	"context"
	"fmt"
	"time"
)

type Ticket struct {
	ID            int
	UserID        int
	ShowID        int
	BookingID     int
	SeatNumber    string
	IsScanned     bool
	ScannedAt     *time.Time
	PaymentStatus string
	QRCodePath    *string
	CreatedAt     time.Time
}

// BookingCode is the human readable reference printed on tickets.
func BookingCode(bookingID int) string {
	return fmt.Sprintf("RAVEN%05d", bookingID)
}

type TicketRepository interface {
	GetById(ctx context.Context, id int) (*Ticket, error)
	GetByBooking(ctx context.Context, bookingID int) ([]Ticket, error)
	// MarkScanned flags the ticket as scanned and reports whether this call
	// performed the transition.
	MarkScanned(ctx context.Context, id int) (*Ticket, bool, error)
	SetQRCode(ctx context.Context, id int, path string) error
}
