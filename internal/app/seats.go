package app

import (
	"errors"
	"net/http"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/realtime"
)

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request, showId int) {
	if _, ok := app.fetchShow(w, r, showId); !ok {
		return
	}

	seats, err := app.seatRepo.GetByShow(r.Context(), showId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	stats, err := app.seatRepo.GetStats(r.Context(), showId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	ground, balcony := domain.GroupSeatsByRow(seats)

	resp := api.SeatMapResponse{
		ShowId:      showId,
		Ground:      toSeatRows(ground),
		Balcony:     toSeatRows(balcony),
		Recommended: toSeatResponses(domain.RecommendSeats(seats)),
		SeatStats:   toSeatStats(*stats),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// SeatUpdates upgrades the connection and streams seat events of the show
// until the client goes away.
func (app *Application) SeatUpdates(w http.ResponseWriter, r *http.Request, showId int) {
	_, err := app.showRepo.GetById(r.Context(), showId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.hub.Serve(w, r, showId)
	if err != nil {
		// the upgrader has already answered the client
		app.contextGetLogger(r).Warn("websocket upgrade failed", "show_id", showId, "error", err)
	}
}

func (app *Application) publishSeats(showID int, status string, seats []domain.Seat) {
	if app.hub == nil || len(seats) == 0 {
		return
	}

	events := make([]realtime.SeatEvent, len(seats))
	for i, s := range seats {
		events[i] = realtime.SeatEvent{
			ShowID:     showID,
			SeatID:     s.ID,
			SeatNumber: s.SeatNumber,
			Status:     status,
		}
	}

	app.hub.Publish(showID, events...)
}

func toSeatResponses(seats []domain.Seat) []api.SeatResponse {
	resp := make([]api.SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = api.SeatResponse{
			Id:         s.ID,
			SeatNumber: s.SeatNumber,
			IsBooked:   s.IsBooked,
		}
	}

	return resp
}

func toSeatRows(rows []domain.SeatRow) []api.SeatRowResponse {
	resp := make([]api.SeatRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = api.SeatRowResponse{
			Row:   row.Label,
			Seats: toSeatResponses(row.Seats),
		}
	}

	return resp
}
