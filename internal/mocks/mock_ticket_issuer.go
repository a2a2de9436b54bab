package mocks

import (
	"context"
	"sync"

	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/ticketing"
)

type MockTicketIssuer struct {
	IssueFunc       func(ctx context.Context, d ticketing.Delivery) error
	RenderPDFFunc   func(ctx context.Context, d ticketing.Delivery) ([]byte, error)
	InvalidateFunc  func(ctx context.Context, userID, bookingID int) error
	IssueShowQRFunc func(ctx context.Context, show *domain.Show) error

	mu     sync.Mutex
	Issued []ticketing.Delivery
}

func (m *MockTicketIssuer) Issue(ctx context.Context, d ticketing.Delivery) error {
	m.mu.Lock()
	m.Issued = append(m.Issued, d)
	m.mu.Unlock()

	if m.IssueFunc == nil {
		return nil
	}

	return m.IssueFunc(ctx, d)
}

// IssuedDeliveries returns a copy of every delivery passed to Issue.
func (m *MockTicketIssuer) IssuedDeliveries() []ticketing.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]ticketing.Delivery(nil), m.Issued...)
}

func (m *MockTicketIssuer) RenderPDF(ctx context.Context, d ticketing.Delivery) ([]byte, error) {
	return m.RenderPDFFunc(ctx, d)
}

func (m *MockTicketIssuer) Invalidate(ctx context.Context, userID, bookingID int) error {
	if m.InvalidateFunc == nil {
		return nil
	}

	return m.InvalidateFunc(ctx, userID, bookingID)
}

func (m *MockTicketIssuer) IssueShowQR(ctx context.Context, show *domain.Show) error {
	if m.IssueShowQRFunc == nil {
		return nil
	}

	return m.IssueShowQRFunc(ctx, show)
}
