package app

import (
	"errors"
	"net/http"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
)

func (app *Application) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, bookingId int) {
	logger := app.contextGetLogger(r)

	var input api.PaymentIntentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, ok := app.fetchOwnBooking(w, r, bookingId)
	if !ok {
		return
	}

	err = app.bookingRepo.InitiatePayment(r.Context(), booking.ID, input.UpiId)
	if err != nil {
		app.paymentUpdateError(w, r, err)
		return
	}

	logger.Info("payment initiated", "booking_id", booking.ID)

	resp := api.PaymentIntentResponse{
		RedirectUrl: app.payments.PaymentURL(booking),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// UpdatePaymentStatus records the status reported by the client after the UPI
// app returns. There is no gateway to confirm it against.
func (app *Application) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request, bookingId int) {
	logger := app.contextGetLogger(r)

	var input api.PaymentStatusRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, ok := app.fetchOwnBooking(w, r, bookingId)
	if !ok {
		return
	}

	err = app.bookingRepo.UpdatePaymentStatus(r.Context(), booking.ID, domain.PaymentStatus(input.Status), input.TransactionId)
	if err != nil {
		app.paymentUpdateError(w, r, err)
		return
	}

	logger.Info("payment status updated", "booking_id", booking.ID, "status", input.Status)

	booking, err = app.bookingRepo.GetById(r.Context(), booking.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// fetchOwnBooking loads a booking of the authenticated user. Bookings of other
// users are reported as missing.
func (app *Application) fetchOwnBooking(w http.ResponseWriter, r *http.Request, bookingId int) (*domain.Booking, bool) {
	booking, err := app.bookingRepo.GetById(r.Context(), bookingId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	if booking.UserID != app.contextGetUserId(r) {
		app.contextGetLogger(r).Warn("access to booking of another user", "booking_id", bookingId)
		app.notFoundResponse(w, r)
		return nil, false
	}

	return booking, true
}

func (app *Application) paymentUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrPaymentAlreadySettled):
		app.editConflictResponseWithErr(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
