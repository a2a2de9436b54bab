package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) GetByShow(ctx context.Context, showID int) ([]domain.Seat, error) {
	query := `
		SELECT id, show_id, seat_number, is_booked, booking_id
		FROM seats
		WHERE show_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, showID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanSeat)
}

func (p *PostgresSeatRepository) GetStats(ctx context.Context, showID int) (*domain.SeatStats, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_booked)
		FROM seats
		WHERE show_id = $1
	`

	var stats domain.SeatStats

	err := p.db.QueryRow(ctx, query, showID).Scan(&stats.Total, &stats.Booked)
	if err != nil {
		return nil, err
	}

	stats.Remaining = stats.Total - stats.Booked

	return &stats, nil
}

func scanSeat(row pgx.CollectableRow) (domain.Seat, error) {
	var seat domain.Seat

	err := row.Scan(&seat.ID, &seat.ShowID, &seat.SeatNumber, &seat.IsBooked, &seat.BookingID)

	return seat, err
}
