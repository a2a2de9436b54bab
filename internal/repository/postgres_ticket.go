package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

const ticketColumns = `id, user_id, show_id, booking_id, seat_number, is_scanned, scanned_at,
	payment_status, qr_code_path, created_at`

type PostgresTicketRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTicketRepository(db *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{
		db: db,
	}
}

func (p *PostgresTicketRepository) GetById(ctx context.Context, id int) (*domain.Ticket, error) {
	rows, err := p.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	ticket, err := pgx.CollectOneRow(rows, scanTicket)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &ticket, nil
}

func (p *PostgresTicketRepository) GetByBooking(ctx context.Context, bookingID int) ([]domain.Ticket, error) {
	rows, err := p.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanTicket)
}

// MarkScanned flips is_scanned only while it is still false, so exactly one
// caller observes the first scan of a ticket.
func (p *PostgresTicketRepository) MarkScanned(ctx context.Context, id int) (*domain.Ticket, bool, error) {
	query := `
		UPDATE tickets
		SET is_scanned = TRUE, scanned_at = NOW()
		WHERE id = $1 AND is_scanned = FALSE
		RETURNING ` + ticketColumns

	rows, err := p.db.Query(ctx, query, id)
	if err != nil {
		return nil, false, err
	}

	ticket, err := pgx.CollectOneRow(rows, scanTicket)
	if err == nil {
		return &ticket, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := p.GetById(ctx, id)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

func (p *PostgresTicketRepository) SetQRCode(ctx context.Context, id int, path string) error {
	tag, err := p.db.Exec(ctx, `UPDATE tickets SET qr_code_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func scanTicket(row pgx.CollectableRow) (domain.Ticket, error) {
	var t domain.Ticket

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.ShowID,
		&t.BookingID,
		&t.SeatNumber,
		&t.IsScanned,
		&t.ScannedAt,
		&t.PaymentStatus,
		&t.QRCodePath,
		&t.CreatedAt,
	)

	return t, err
}
