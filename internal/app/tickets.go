package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/ticketing"
)

// DownloadTickets returns the PDF holding every ticket of the booking the
// given ticket belongs to.
func (app *Application) DownloadTickets(w http.ResponseWriter, r *http.Request, ticketId int) {
	userId := app.contextGetUserId(r)

	ticket, err := app.ticketRepo.GetById(r.Context(), ticketId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if ticket.UserID != userId {
		app.contextGetLogger(r).Warn("download of another user's ticket", "ticket_id", ticketId)
		app.notFoundResponse(w, r)
		return
	}

	booking, ok := app.fetchOwnBooking(w, r, ticket.BookingID)
	if !ok {
		return
	}

	show, ok := app.fetchShow(w, r, booking.ShowID)
	if !ok {
		return
	}

	tickets, err := app.ticketRepo.GetByBooking(r.Context(), booking.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	delivery := ticketing.Delivery{
		Booking: *booking,
		Show:    *show,
		Tickets: tickets,
	}

	if booking.BuyerName != nil {
		delivery.BuyerName = *booking.BuyerName
	}
	if booking.BuyerEmail != nil {
		delivery.BuyerEmail = *booking.BuyerEmail
	}

	pdf, err := app.issuer.RenderPDF(r.Context(), delivery)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s_tickets.pdf", domain.BookingCode(booking.ID))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)

	_, err = w.Write(pdf)
	if err != nil {
		app.logError(r, err)
	}
}
