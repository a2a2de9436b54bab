package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/events"
	"github.com/ravenent/show-booking-system/internal/realtime"
	"github.com/ravenent/show-booking-system/internal/ticketing"
	appvalidator "github.com/ravenent/show-booking-system/internal/validator"
	"github.com/ravenent/show-booking-system/internal/worker"
)

func (app *Application) CreateBooking(w http.ResponseWriter, r *http.Request, showId int) {
	logger := app.contextGetLogger(r)
	userId := app.contextGetUserId(r)

	var input api.CreateBookingRequest

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

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.unauthorizedAccessResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	req := domain.BookingRequest{
		ShowID:  showId,
		SeatIDs: input.SeatIds,
		Buyer: domain.Buyer{
			UserID: user.ID,
			Name:   user.Username,
			Email:  user.Email,
		},
		PaymentStatus: domain.PaymentConfirmed,
	}

	result, ok := app.bookSeats(w, r, req)
	if !ok {
		return
	}

	delivery := toDelivery(result, user.Username, user.Email)

	delivered := true

	err = app.issuer.Issue(r.Context(), delivery)
	if err != nil {
		// the booking stands, tickets can still be downloaded
		logger.Error("failed to deliver tickets", "booking_id", result.Booking.ID, "error", err)
		delivered = false
	} else {
		for i := range result.Tickets {
			qr := ticketing.TicketQRPath(result.Tickets[i].ID)
			result.Tickets[i].QRCodePath = &qr
		}
	}

	resp := api.CreateBookingResponse{
		Booking:          toBookingResponse(&result.Booking),
		Tickets:          toTicketResponses(result.Tickets),
		TicketsDelivered: delivered,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateOfflineBooking(w http.ResponseWriter, r *http.Request, showId int) {
	logger := app.contextGetLogger(r)
	adminId := app.contextGetUserId(r)

	var input api.AdminCreateBookingRequest

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

	req := domain.BookingRequest{
		ShowID:  showId,
		SeatIDs: input.SeatIds,
		Buyer: domain.Buyer{
			UserID:  adminId,
			Name:    input.BuyerName,
			Email:   input.BuyerEmail,
			Offline: true,
		},
		PaymentStatus: domain.PaymentPaid,
	}

	result, ok := app.bookSeats(w, r, req)
	if !ok {
		return
	}

	delivery := toDelivery(result, input.BuyerName, input.BuyerEmail)
	name := "ticket-delivery:" + domain.BookingCode(result.Booking.ID)

	jobId, err := app.deliveries.Submit(r.Context(), name, func(ctx context.Context) error {
		return app.issuer.Issue(ctx, delivery)
	})
	if err != nil {
		// the seats are sold either way, the admin can resend from the PDF endpoint
		logger.Error("failed to queue ticket delivery", "booking_id", result.Booking.ID, "error", err)
	}

	resp := api.AdminCreateBookingResponse{
		Booking:       toBookingResponse(&result.Booking),
		Tickets:       toTicketResponses(result.Tickets),
		DeliveryJobId: jobId,
	}

	headers := make(http.Header)
	if jobId != "" {
		headers.Set("Location", fmt.Sprintf("/admin/deliveries/%s", jobId))
	}

	err = app.writeJSON(w, http.StatusAccepted, resp, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookSeats runs the booking and reports its side effects. It answers the
// request itself when the booking cannot be made.
func (app *Application) bookSeats(w http.ResponseWriter, r *http.Request, req domain.BookingRequest) (*domain.BookingResult, bool) {
	logger := app.contextGetLogger(r)

	show, ok := app.fetchShow(w, r, req.ShowID)
	if !ok {
		return nil, false
	}

	if show.IsPast(app.now()) {
		app.badRequestResponse(w, r, errors.New(ErrShowInPast))
		return nil, false
	}

	result, err := app.bookingRepo.BookSeats(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrEmptySeatSelection),
			errors.Is(err, domain.ErrInvalidSeatSelection):
			app.fieldErrorResponse(w, r, "seatIds", err.Error())
		case errors.Is(err, domain.ErrSeatAlreadyBooked):
			logger.Warn("seat conflict", "show_id", req.ShowID, "seat_ids", req.SeatIDs)
			app.metrics.seatConflict(r.Context(), req.Buyer.Offline)
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	logger.Info("booking created",
		"booking_id", result.Booking.ID,
		"show_id", req.ShowID,
		"tickets", result.Booking.NumberOfTickets,
		"offline", req.Buyer.Offline)

	app.metrics.bookingCreated(r.Context(), result.Booking.NumberOfTickets, req.Buyer.Offline)
	app.publishSeats(req.ShowID, realtime.SeatBooked, result.Seats)
	app.publishBookingConfirmed(r.Context(), logger, result, req.Buyer)

	return result, true
}

func (app *Application) publishBookingConfirmed(ctx context.Context, logger *slog.Logger, result *domain.BookingResult, buyer domain.Buyer) {
	seatNumbers := make([]string, len(result.Seats))
	for i, s := range result.Seats {
		seatNumbers[i] = s.SeatNumber
	}

	event := events.BookingConfirmed{
		BookingID:   result.Booking.ID,
		ShowID:      result.Show.ID,
		ShowName:    result.Show.Name,
		UserID:      buyer.UserID,
		BuyerEmail:  buyer.Email,
		SeatNumbers: seatNumbers,
		TotalPrice:  result.Booking.TotalPrice,
		Offline:     buyer.Offline,
		CreatedAt:   result.Booking.CreatedAt,
	}

	err := app.publisher.PublishBookingConfirmed(ctx, event)
	if err != nil {
		logger.Error("failed to publish booking event", "booking_id", result.Booking.ID, "error", err)
	}
}

func (app *Application) GetBookingsOfUser(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)
	qs := r.URL.Query()

	pagination, issues := readPagination(qs)

	from, issue := readDate(qs, "startDate")
	if issue != nil {
		issues = append(issues, *issue)
	}

	to, issue := readDate(qs, "endDate")
	if issue != nil {
		issues = append(issues, *issue)
	}

	if from != nil && to != nil && to.Before(*from) {
		issues = append(issues, api.ValidationError{Field: "endDate", Issue: "must not be before startDate"})
	}

	filters := domain.BookingFilters{
		Pagination: pagination,
		From:       from,
		To:         to,
	}

	if v := qs.Get("status"); v != "" {
		status := domain.PaymentStatus(v)
		switch status {
		case domain.PaymentPending, domain.PaymentInitiated, domain.PaymentConfirmed, domain.PaymentPaid:
			filters.Status = &status
		default:
			issues = append(issues, api.ValidationError{Field: "status", Issue: appvalidator.ErrInvalidStatus})
		}
	}

	if len(issues) > 0 {
		app.validationErrorResponse(w, r, issues)
		return
	}

	bookings, metadata, err := app.bookingRepo.GetByUser(r.Context(), userId, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: toBookingResponses(bookings),
		Metadata: toMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListBookings(w http.ResponseWriter, r *http.Request) {
	pagination, issues := readPagination(r.URL.Query())
	if len(issues) > 0 {
		app.validationErrorResponse(w, r, issues)
		return
	}

	bookings, metadata, err := app.bookingRepo.GetAll(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: toBookingResponses(bookings),
		Metadata: toMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.bookingRepo.GetSummaryByShow(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.BookingSummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = api.BookingSummaryResponse{
			ShowId:       s.ShowID,
			ShowName:     s.ShowName,
			ShowDate:     openapi_types.Date{Time: s.ShowDate},
			TotalTickets: s.TotalTickets,
			TotalPrice:   s.TotalPrice,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) KeepBookingSeats(w http.ResponseWriter, r *http.Request, bookingId int) {
	logger := app.contextGetLogger(r)

	var input api.KeepSeatsRequest

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

	release, err := app.bookingRepo.KeepSeats(r.Context(), bookingId, input.SeatIds)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatNotInBooking):
			app.fieldErrorResponse(w, r, "seatIds", err.Error())
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("booking seats released", "booking_id", bookingId, "released", len(release.Released))

	app.publishSeats(release.Booking.ShowID, realtime.SeatReleased, release.Released)

	if len(release.Released) > 0 {
		err = app.issuer.Invalidate(r.Context(), release.Booking.UserID, release.Booking.ID)
		if err != nil {
			logger.Error("failed to invalidate cached tickets", "booking_id", bookingId, "error", err)
		}
	}

	resp := api.KeepSeatsResponse{
		Booking:       toBookingResponse(&release.Booking),
		ReleasedSeats: toSeatResponses(release.Released),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetDelivery(w http.ResponseWriter, r *http.Request) {
	jobId := chi.URLParam(r, "jobId")

	state, err := app.deliveries.Status(r.Context(), jobId)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrJobNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.DeliveryJobResponse{
		Id:        state.ID,
		Name:      state.Name,
		Status:    string(state.Status),
		UpdatedAt: state.UpdatedAt,
	}

	if state.Error != "" {
		resp.Error = &state.Error
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toDelivery(result *domain.BookingResult, buyerName, buyerEmail string) ticketing.Delivery {
	return ticketing.Delivery{
		Booking:    result.Booking,
		Show:       result.Show,
		Tickets:    result.Tickets,
		BuyerName:  buyerName,
		BuyerEmail: buyerEmail,
	}
}

func toBookingResponse(b *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		Id:              b.ID,
		BookingCode:     domain.BookingCode(b.ID),
		ShowId:          b.ShowID,
		ShowName:        b.ShowName,
		ShowDate:        openapi_types.Date{Time: b.ShowDate},
		NumberOfTickets: b.NumberOfTickets,
		TotalPrice:      b.TotalPrice,
		PaymentStatus:   string(b.PaymentStatus),
		TransactionId:   b.TransactionID,
		UpiId:           b.UpiID,
		BuyerName:       b.BuyerName,
		BuyerEmail:      b.BuyerEmail,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookingResponses(bookings []domain.Booking) []api.BookingResponse {
	resp := make([]api.BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = toBookingResponse(&bookings[i])
	}

	return resp
}

func toTicketResponses(tickets []domain.Ticket) []api.TicketResponse {
	resp := make([]api.TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = api.TicketResponse{
			Id:         t.ID,
			SeatNumber: t.SeatNumber,
			IsScanned:  t.IsScanned,
			ScannedAt:  t.ScannedAt,
			QrCodeUrl:  mediaURL(t.QRCodePath),
		}
	}

	return resp
}
