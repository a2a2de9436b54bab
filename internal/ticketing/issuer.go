package ticketing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/mailer"
	"github.com/ravenent/show-booking-system/internal/storage"
)

const confirmationTemplate = "ticket_confirmation.tmpl"

var ErrNoRecipient = errors.New("booking has no buyer email")

// QRCodeRecorder persists the storage path of a generated QR code.
type QRCodeRecorder interface {
	SetQRCode(ctx context.Context, id int, path string) error
}

// Delivery is a committed booking together with what is needed to print it.
type Delivery struct {
	Booking    domain.Booking
	Show       domain.Show
	Tickets    []domain.Ticket
	BuyerName  string
	BuyerEmail string
}

func (d Delivery) SeatNumbers() []string {
	seats := make([]string, len(d.Tickets))
	for i, t := range d.Tickets {
		seats[i] = t.SeatNumber
	}
	return seats
}

type Issuer struct {
	baseURL string
	venue   string
	store   storage.Store
	tickets QRCodeRecorder
	shows   QRCodeRecorder
	mailer  mailer.Mailer
	logger  *slog.Logger
}

func NewIssuer(baseURL, venue string, store storage.Store, tickets, shows QRCodeRecorder, m mailer.Mailer, logger *slog.Logger) *Issuer {
	return &Issuer{
		baseURL: baseURL,
		venue:   venue,
		store:   store,
		tickets: tickets,
		shows:   shows,
		mailer:  m,
		logger:  logger,
	}
}

// Issue makes sure every ticket has a QR code, renders the booking PDF and
// mails it to the buyer.
func (iss *Issuer) Issue(ctx context.Context, d Delivery) error {
	if d.BuyerEmail == "" {
		return ErrNoRecipient
	}

	pdf, err := iss.RenderPDF(ctx, d)
	if err != nil {
		return err
	}

	data := map[string]any{
		"buyerName":   d.BuyerName,
		"showName":    d.Show.Name,
		"showDate":    d.Show.Date.Format("02 Jan 2006"),
		"showTime":    domain.FormatClock(d.Show.Time),
		"seats":       d.SeatNumbers(),
		"bookingCode": domain.BookingCode(d.Booking.ID),
		"totalPrice":  d.Booking.TotalPrice.StringFixed(2),
		"venue":       iss.venue,
	}

	attachment := mailer.Attachment{
		Filename:    "tickets.pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	}

	err = iss.mailer.Send(d.BuyerEmail, confirmationTemplate, data, attachment)
	if err != nil {
		return fmt.Errorf("send tickets for booking %d: %w", d.Booking.ID, err)
	}

	iss.logger.Info("tickets delivered",
		"booking_id", d.Booking.ID,
		"tickets", len(d.Tickets),
	)

	return nil
}

// RenderPDF returns the cached PDF of the booking, rendering and caching it
// first when absent.
func (iss *Issuer) RenderPDF(ctx context.Context, d Delivery) ([]byte, error) {
	name := BookingPDFPath(d.Booking.UserID, d.Booking.ID)

	cached, err := iss.read(ctx, name)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	poster := iss.poster(ctx, d.Show)

	views := make([]TicketView, 0, len(d.Tickets))
	for _, t := range d.Tickets {
		qr, err := iss.ticketQR(ctx, t)
		if err != nil {
			return nil, err
		}

		views = append(views, TicketView{
			BookingCode: domain.BookingCode(d.Booking.ID),
			BuyerName:   d.BuyerName,
			SeatNumber:  t.SeatNumber,
			ShowName:    d.Show.Name,
			ShowDate:    d.Show.Date,
			ShowTime:    domain.FormatClock(d.Show.Time),
			Price:       d.Show.SeatPrice,
			Venue:       iss.venue,
			Poster:      poster,
			QRCode:      qr,
		})
	}

	pdf, err := RenderPDF(views)
	if err != nil {
		return nil, fmt.Errorf("render tickets for booking %d: %w", d.Booking.ID, err)
	}

	err = iss.store.Save(ctx, name, bytes.NewReader(pdf))
	if err != nil {
		return nil, err
	}

	return pdf, nil
}

// Invalidate drops the cached PDF of a booking so the next render reflects its
// current tickets.
func (iss *Issuer) Invalidate(ctx context.Context, userID, bookingID int) error {
	return iss.store.Delete(ctx, BookingPDFPath(userID, bookingID))
}

// IssueShowQR generates the marketing QR of a show pointing at its redirect URL.
func (iss *Issuer) IssueShowQR(ctx context.Context, show *domain.Show) error {
	png, err := GenerateQR(ShowURL(iss.baseURL, show.ID))
	if err != nil {
		return err
	}

	name := ShowQRPath(show.Slug)

	err = iss.store.Save(ctx, name, bytes.NewReader(png))
	if err != nil {
		return err
	}

	err = iss.shows.SetQRCode(ctx, show.ID, name)
	if err != nil {
		return err
	}

	show.QRCodePath = &name

	return nil
}

func (iss *Issuer) ticketQR(ctx context.Context, t domain.Ticket) ([]byte, error) {
	if t.QRCodePath != nil {
		png, err := iss.read(ctx, *t.QRCodePath)
		if err == nil {
			return png, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	png, err := GenerateQR(TicketURL(iss.baseURL, t.ID))
	if err != nil {
		return nil, err
	}

	name := TicketQRPath(t.ID)

	err = iss.store.Save(ctx, name, bytes.NewReader(png))
	if err != nil {
		return nil, err
	}

	err = iss.tickets.SetQRCode(ctx, t.ID, name)
	if err != nil {
		return nil, err
	}

	return png, nil
}

func (iss *Issuer) poster(ctx context.Context, show domain.Show) []byte {
	if show.PosterPath == nil {
		return nil
	}

	data, err := iss.read(ctx, *show.PosterPath)
	if err != nil {
		iss.logger.Warn("poster unavailable for tickets", "show_id", show.ID, "error", err)
		return nil
	}

	return data
}

func (iss *Issuer) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := iss.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
