package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
)

const (
	// size of qr_marketing_scans.identifier
	maxIdentifierLength = 255
	unknownIdentifier   = "unknown"
)

var scannedTicketURL = regexp.MustCompile(`/qr/(\d+)/?$`)

// ScanTicket is the target of the QR code printed on a ticket. The first scan
// admits the holder, later scans still succeed but report the ticket as used.
func (app *Application) ScanTicket(w http.ResponseWriter, r *http.Request, ticketId int) {
	resp, ok := app.scan(w, r, ticketId, 0)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// DoorScan admits a ticket at the entrance of a specific show. The ticket may be
// given as its id or as the URL encoded in its QR code.
func (app *Application) DoorScan(w http.ResponseWriter, r *http.Request, showId int) {
	var input api.DoorScanRequest

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

	ticketId, err := parseTicketRef(input.Ticket)
	if err != nil {
		app.fieldErrorResponse(w, r, "ticket", err.Error())
		return
	}

	resp, ok := app.scan(w, r, ticketId, showId)
	if !ok {
		return
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// MarketingScan logs a scan of a printed marketing code and sends the visitor
// on. Codes printed without a qr parameter are logged as unknown.
func (app *Application) MarketingScan(w http.ResponseWriter, r *http.Request) {
	identifier := marketingIdentifier(r.URL.Query().Get("qr"))
	if identifier == "" {
		identifier = unknownIdentifier
	}

	app.logMarketingScan(r, identifier)

	http.Redirect(w, r, app.config.Marketing.RedirectURL, http.StatusSeeOther)
}

// ShowQRRedirect is the target of a show's poster QR code.
func (app *Application) ShowQRRedirect(w http.ResponseWriter, r *http.Request, showId int) {
	show, ok := app.fetchShow(w, r, showId)
	if !ok {
		return
	}

	app.logMarketingScan(r, "show:"+show.Slug)

	target := fmt.Sprintf("%s/shows/%s", strings.TrimRight(app.config.BaseURL, "/"), show.Slug)

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// scan marks the ticket as used. A non-zero showId restricts admission to that
// show.
func (app *Application) scan(w http.ResponseWriter, r *http.Request, ticketId, showId int) (api.ScanResponse, bool) {
	logger := app.contextGetLogger(r)

	if showId != 0 {
		ticket, err := app.ticketRepo.GetById(r.Context(), ticketId)
		if err != nil {
			app.scanLookupError(w, r, err)
			return api.ScanResponse{}, false
		}

		if ticket.ShowID != showId {
			logger.Warn("ticket presented at the wrong show", "ticket_id", ticketId, "show_id", showId)
			app.fieldErrorResponse(w, r, "ticket", "is not valid for this show")
			return api.ScanResponse{}, false
		}
	}

	ticket, first, err := app.ticketRepo.MarkScanned(r.Context(), ticketId)
	if err != nil {
		app.scanLookupError(w, r, err)
		return api.ScanResponse{}, false
	}

	if first {
		logger.Info("ticket admitted", "ticket_id", ticket.ID, "show_id", ticket.ShowID)
	} else {
		logger.Warn("ticket scanned again", "ticket_id", ticket.ID)
	}

	app.metrics.ticketScanned(r.Context(), first, showId != 0)

	// repeat scans are logged too
	app.logTicketScan(r, ticket)

	resp := api.ScanResponse{
		Valid:          true,
		AlreadyScanned: !first,
		Ticket: api.ScannedTicket{
			Id:          ticket.ID,
			BookingId:   ticket.BookingID,
			BookingCode: domain.BookingCode(ticket.BookingID),
			ShowId:      ticket.ShowID,
			SeatNumber:  ticket.SeatNumber,
			ScannedAt:   ticket.ScannedAt,
		},
	}

	return resp, true
}

func (app *Application) scanLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) logTicketScan(r *http.Request, ticket *domain.Ticket) {
	logger := app.contextGetLogger(r)
	ip := clientIP(r)

	app.background(logger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		scanLog := &domain.ScanLog{
			TicketID:  ticket.ID,
			ShowID:    ticket.ShowID,
			IPAddress: ip,
			Location:  app.locate(ctx, ip),
			ScannedAt: app.now(),
		}

		err := app.analyticsRepo.CreateScanLog(ctx, scanLog)
		if err != nil {
			logger.Error("failed to log ticket scan", "ticket_id", ticket.ID, "error", err)
		}
	})
}

func (app *Application) logMarketingScan(r *http.Request, identifier string) {
	logger := app.contextGetLogger(r)
	ip := clientIP(r)
	userAgent := r.UserAgent()

	app.background(logger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		scan := &domain.MarketingScan{
			Identifier: identifier,
			IPAddress:  ip,
			UserAgent:  userAgent,
			Location:   app.locate(ctx, ip),
			CreatedAt:  app.now(),
		}

		err := app.analyticsRepo.CreateMarketingScan(ctx, scan)
		if err != nil {
			logger.Error("failed to log marketing scan", "identifier", identifier, "error", err)
		}
	})
}

// marketingIdentifier makes a scanned identifier storable: invalid UTF-8 and
// NUL bytes are dropped and the result is cut to maxIdentifierLength characters.
func marketingIdentifier(raw string) string {
	identifier := strings.ToValidUTF8(raw, "")
	identifier = strings.TrimSpace(strings.ReplaceAll(identifier, "\x00", ""))

	if utf8.RuneCountInString(identifier) > maxIdentifierLength {
		identifier = strings.TrimSpace(string([]rune(identifier)[:maxIdentifierLength]))
	}

	return identifier
}

// parseTicketRef accepts "42" or a URL ending in /qr/42.
func parseTicketRef(ref string) (int, error) {
	ref = strings.TrimSpace(ref)

	if m := scannedTicketURL.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	}

	id, err := strconv.Atoi(ref)
	if err != nil || id < 1 {
		return 0, errors.New("must be a ticket id or ticket QR url")
	}

	return id, nil
}
