package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/shopspring/decimal"
)

const bookingColumns = `b.id, b.user_id, b.show_id, s.name, s.show_date, b.number_of_tickets, b.total_price,
	b.payment_status, b.transaction_id, b.upi_id, b.buyer_name, b.buyer_email, b.ticket_id, b.created_at`

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// BookSeats books the requested seats of a show for one buyer. The seat rows are
// locked in id order, so concurrent requests for overlapping seats serialize and
// every request after the first one fails with ErrSeatAlreadyBooked.
func (p *PostgresBookingRepository) BookSeats(
	ctx context.Context,
	req domain.BookingRequest) (*domain.BookingResult, error) {

	if len(req.SeatIDs) == 0 {
		return nil, domain.ErrEmptySeatSelection
	}

	var result domain.BookingResult

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		show, err := scanShow(tx.QueryRow(ctx,
			`SELECT `+showColumns+` FROM shows s WHERE s.id = $1 FOR SHARE`, req.ShowID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		query := `
			SELECT id, show_id, seat_number, is_booked, booking_id
			FROM seats
			WHERE show_id = $1 AND id = ANY($2)
			ORDER BY id
			FOR UPDATE
		`

		rows, err := tx.Query(ctx, query, req.ShowID, req.SeatIDs)
		if err != nil {
			return err
		}

		seats, err := pgx.CollectRows(rows, scanSeat)
		if err != nil {
			return err
		}

		if len(seats) != len(req.SeatIDs) {
			return domain.ErrInvalidSeatSelection
		}

		seatIDs := make([]int, len(seats))
		for i, seat := range seats {
			if seat.IsBooked {
				return domain.ErrSeatAlreadyBooked
			}

			seatIDs[i] = seat.ID
		}

		booking := domain.Booking{
			UserID:          req.Buyer.UserID,
			ShowID:          show.ID,
			ShowName:        show.Name,
			ShowDate:        show.Date,
			NumberOfTickets: len(seats),
			TotalPrice:      domain.TotalPrice(show.SeatPrice, len(seats)),
			PaymentStatus:   req.PaymentStatus,
			BuyerName:       &req.Buyer.Name,
			BuyerEmail:      &req.Buyer.Email,
		}

		query = `
			INSERT INTO bookings (user_id, show_id, number_of_tickets, total_price, payment_status, buyer_name, buyer_email)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`

		err = tx.QueryRow(ctx,
			query,
			booking.UserID,
			booking.ShowID,
			booking.NumberOfTickets,
			booking.TotalPrice,
			string(booking.PaymentStatus),
			booking.BuyerName,
			booking.BuyerEmail).Scan(&booking.ID, &booking.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE seats SET is_booked = TRUE, booking_id = $1 WHERE id = ANY($2)`,
			booking.ID, seatIDs)
		if err != nil {
			return err
		}

		tickets := make([]domain.Ticket, 0, len(seats))

		query = `
			INSERT INTO tickets (user_id, show_id, booking_id, seat_number)
			VALUES ($1, $2, $3, $4)
			RETURNING id, is_scanned, payment_status, created_at
		`

		for i := range seats {
			seats[i].IsBooked = true
			seats[i].BookingID = &booking.ID

			ticket := domain.Ticket{
				UserID:     booking.UserID,
				ShowID:     show.ID,
				BookingID:  booking.ID,
				SeatNumber: seats[i].SeatNumber,
			}

			err = tx.QueryRow(ctx,
				query,
				ticket.UserID,
				ticket.ShowID,
				ticket.BookingID,
				ticket.SeatNumber).Scan(&ticket.ID, &ticket.IsScanned, &ticket.PaymentStatus, &ticket.CreatedAt)
			if err != nil {
				return err
			}

			tickets = append(tickets, ticket)
		}

		booking.TicketID = &tickets[0].ID

		_, err = tx.Exec(ctx, `UPDATE bookings SET ticket_id = $1 WHERE id = $2`, tickets[0].ID, booking.ID)
		if err != nil {
			return err
		}

		result = domain.BookingResult{
			Booking: booking,
			Show:    *show,
			Seats:   seats,
			Tickets: tickets,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN shows s ON s.id = b.show_id
		WHERE b.id = $1`

	booking, err := scanBooking(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) GetByUser(
	ctx context.Context,
	userID int,
	filters domain.BookingFilters) ([]domain.Booking, *domain.Metadata, error) {

	var status *string
	if filters.Status != nil {
		s := string(*filters.Status)
		status = &s
	}

	query := `
		SELECT COUNT(*) OVER(), ` + bookingColumns + `
		FROM bookings b
		JOIN shows s ON s.id = b.show_id
		WHERE b.user_id = $1
			AND ($2::date IS NULL OR s.show_date >= $2)
			AND ($3::date IS NULL OR s.show_date <= $3)
			AND ($4::text IS NULL OR b.payment_status = $4)
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $5 OFFSET $6
	`

	return p.list(ctx, filters.Pagination, query,
		userID, filters.From, filters.To, status, filters.Limit(), filters.Offset())
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), ` + bookingColumns + `
		FROM bookings b
		JOIN shows s ON s.id = b.show_id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2
	`

	return p.list(ctx, pagination, query, pagination.Limit(), pagination.Offset())
}

func (p *PostgresBookingRepository) list(
	ctx context.Context,
	pagination domain.Pagination,
	query string,
	args ...any) ([]domain.Booking, *domain.Metadata, error) {

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var b domain.Booking

		dest := append([]any{&totalRecords}, bookingDest(&b)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, b)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	return bookings, domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize), nil
}

func (p *PostgresBookingRepository) GetSummaryByShow(ctx context.Context) ([]domain.BookingSummary, error) {
	query := `
		SELECT s.id, s.name, s.show_date,
			COALESCE(SUM(b.number_of_tickets), 0),
			COALESCE(SUM(b.total_price), 0)
		FROM shows s
		LEFT JOIN bookings b ON b.show_id = s.id
		GROUP BY s.id
		ORDER BY s.show_date DESC, s.id DESC
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BookingSummary, error) {
		var s domain.BookingSummary
		err := row.Scan(&s.ShowID, &s.ShowName, &s.ShowDate, &s.TotalTickets, &s.TotalPrice)
		return s, err
	})
}

func (p *PostgresBookingRepository) InitiatePayment(ctx context.Context, id int, upiID string) error {
	query := `
		UPDATE bookings
		SET upi_id = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status <> $4
	`

	tag, err := p.db.Exec(ctx, query, upiID, string(domain.PaymentInitiated), id, string(domain.PaymentPaid))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return p.missingOrSettled(ctx, id)
	}

	return nil
}

func (p *PostgresBookingRepository) UpdatePaymentStatus(
	ctx context.Context,
	id int,
	status domain.PaymentStatus,
	transactionID *string) error {

	query := `
		UPDATE bookings
		SET payment_status = $1, transaction_id = COALESCE($2, transaction_id), updated_at = NOW()
		WHERE id = $3 AND payment_status <> $4
	`

	tag, err := p.db.Exec(ctx, query, string(status), transactionID, id, string(domain.PaymentPaid))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return p.missingOrSettled(ctx, id)
	}

	return nil
}

func (p *PostgresBookingRepository) missingOrSettled(ctx context.Context, id int) error {
	var exists bool

	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return domain.ErrRecordNotFound
	}

	return domain.ErrPaymentAlreadySettled
}

// KeepSeats keeps only keepSeatIDs booked under the booking and releases every
// other seat it holds. Tickets of released seats are deleted and the ticket count
// and total price are recomputed from the show price.
func (p *PostgresBookingRepository) KeepSeats(
	ctx context.Context,
	bookingID int,
	keepSeatIDs []int) (*domain.SeatRelease, error) {

	var release domain.SeatRelease

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + `, s.seat_price
			FROM bookings b
			JOIN shows s ON s.id = b.show_id
			WHERE b.id = $1
			FOR UPDATE OF b`

		var (
			booking   domain.Booking
			seatPrice decimal.Decimal
		)

		err := tx.QueryRow(ctx, query, bookingID).Scan(append(bookingDest(&booking), &seatPrice)...)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT id, show_id, seat_number, is_booked, booking_id
			FROM seats
			WHERE booking_id = $1
			ORDER BY id
			FOR UPDATE`, bookingID)
		if err != nil {
			return err
		}

		held, err := pgx.CollectRows(rows, scanSeat)
		if err != nil {
			return err
		}

		heldIDs := make(map[int]bool, len(held))
		for _, seat := range held {
			heldIDs[seat.ID] = true
		}

		keep := make(map[int]bool, len(keepSeatIDs))
		for _, id := range keepSeatIDs {
			if !heldIDs[id] {
				return domain.ErrSeatNotInBooking
			}

			keep[id] = true
		}

		var (
			releasedIDs     []int
			releasedNumbers []string
		)

		for _, seat := range held {
			if keep[seat.ID] {
				continue
			}

			seat.IsBooked = false
			seat.BookingID = nil

			release.Released = append(release.Released, seat)
			releasedIDs = append(releasedIDs, seat.ID)
			releasedNumbers = append(releasedNumbers, seat.SeatNumber)
		}

		if len(releasedIDs) > 0 {
			_, err = tx.Exec(ctx, `UPDATE seats SET is_booked = FALSE, booking_id = NULL WHERE id = ANY($1)`,
				releasedIDs)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `DELETE FROM tickets WHERE booking_id = $1 AND seat_number = ANY($2)`,
				bookingID, releasedNumbers)
			if err != nil {
				return err
			}
		}

		booking.NumberOfTickets = len(keep)
		booking.TotalPrice = domain.TotalPrice(seatPrice, len(keep))

		query = `
			UPDATE bookings
			SET number_of_tickets = $1,
				total_price = $2,
				ticket_id = (SELECT MIN(id) FROM tickets WHERE booking_id = $3),
				updated_at = NOW()
			WHERE id = $3
			RETURNING ticket_id
		`

		err = tx.QueryRow(ctx, query, booking.NumberOfTickets, booking.TotalPrice, bookingID).
			Scan(&booking.TicketID)
		if err != nil {
			return err
		}

		release.Booking = booking

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &release, nil
}

func bookingDest(b *domain.Booking) []any {
	return []any{
		&b.ID,
		&b.UserID,
		&b.ShowID,
		&b.ShowName,
		&b.ShowDate,
		&b.NumberOfTickets,
		&b.TotalPrice,
		&b.PaymentStatus,
		&b.TransactionID,
		&b.UpiID,
		&b.BuyerName,
		&b.BuyerEmail,
		&b.TicketID,
		&b.CreatedAt,
	}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking

	if err := row.Scan(bookingDest(&booking)...); err != nil {
		return nil, err
	}

	return &booking, nil
}
