package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

const showColumns = `s.id, s.name, s.slug, s.description, s.show_date, s.show_time, s.seat_price,
	s.include_balcony, s.poster_path, s.thumbnail_path, s.qr_code_path, s.created_at, s.version`

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

// CreateWithSeats inserts the show under a unique slug and stores its seat layout
// in the same transaction, so a show never exists without seats.
func (p *PostgresShowRepository) CreateWithSeats(
	ctx context.Context,
	show *domain.Show,
	layout func(*domain.Show) []domain.Seat) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		base := domain.Slugify(show.Name)

		rows, err := tx.Query(ctx, `SELECT slug FROM shows WHERE slug = $1 OR slug LIKE $2`, base, base+"-%")
		if err != nil {
			return err
		}

		taken, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}

		show.Slug = domain.NextSlug(base, taken)

		query := `
			INSERT INTO shows (name, slug, description, show_date, show_time, seat_price, include_balcony)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, version
		`

		err = tx.QueryRow(ctx,
			query,
			show.Name,
			show.Slug,
			show.Description,
			show.Date,
			show.Time,
			show.SeatPrice,
			show.IncludeBalcony).Scan(&show.ID, &show.CreatedAt, &show.Version)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateSlug
			}

			return err
		}

		var existing int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE show_id = $1`, show.ID).Scan(&existing)
		if err != nil {
			return err
		}

		if existing > 0 {
			return nil
		}

		seats := layout(show)

		seatRows := make([][]any, 0, len(seats))
		for _, seat := range seats {
			seatRows = append(seatRows, []any{show.ID, seat.SeatNumber, seat.IsBooked})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"seats"},
			[]string{"show_id", "seat_number", "is_booked"},
			pgx.CopyFromRows(seatRows),
		)

		return err
	})
}

func (p *PostgresShowRepository) GetById(ctx context.Context, id int) (*domain.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows s WHERE s.id = $1`

	show, err := scanShow(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return show, nil
}

func (p *PostgresShowRepository) GetBySlug(ctx context.Context, slug string) (*domain.ShowDetail, error) {
	query := `
		SELECT ` + showColumns + `,
			(SELECT COUNT(*) FROM seats WHERE show_id = s.id),
			(SELECT COUNT(*) FROM seats WHERE show_id = s.id AND is_booked)
		FROM shows s
		WHERE s.slug = $1
	`

	var detail domain.ShowDetail

	err := p.db.QueryRow(ctx, query, slug).Scan(
		append(showDest(&detail.Show), &detail.Stats.Total, &detail.Stats.Booked)...,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	detail.Stats.Remaining = detail.Stats.Total - detail.Stats.Booked

	query = `
		SELECT id, show_id, file_path, description, created_at
		FROM media_files
		WHERE show_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query, detail.ID)
	if err != nil {
		return nil, err
	}

	detail.Media, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MediaFile, error) {
		var m domain.MediaFile
		err := row.Scan(&m.ID, &m.ShowID, &m.FilePath, &m.Description, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

func (p *PostgresShowRepository) GetUpcoming(
	ctx context.Context,
	from time.Time,
	pagination domain.Pagination) ([]domain.ShowWithStats, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), ` + showColumns + `,
			COUNT(se.id),
			COUNT(se.id) FILTER (WHERE se.is_booked)
		FROM shows s
		LEFT JOIN seats se ON se.show_id = s.id
		WHERE s.show_date >= $1
		GROUP BY s.id
		ORDER BY s.show_date, s.show_time, s.id
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, from, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	shows := make([]domain.ShowWithStats, 0)
	totalRecords := 0

	for rows.Next() {
		var s domain.ShowWithStats

		dest := append([]any{&totalRecords}, showDest(&s.Show)...)
		dest = append(dest, &s.Stats.Total, &s.Stats.Booked)

		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}

		s.Stats.Remaining = s.Stats.Total - s.Stats.Booked
		shows = append(shows, s)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	return shows, domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize), nil
}

func (p *PostgresShowRepository) GetAllWithStats(ctx context.Context) ([]domain.ShowWithStats, error) {
	query := `
		SELECT ` + showColumns + `,
			COUNT(se.id),
			COUNT(se.id) FILTER (WHERE se.is_booked)
		FROM shows s
		LEFT JOIN seats se ON se.show_id = s.id
		GROUP BY s.id
		ORDER BY s.show_date DESC, s.id DESC
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]domain.ShowWithStats, 0)

	for rows.Next() {
		var s domain.ShowWithStats

		dest := append(showDest(&s.Show), &s.Stats.Total, &s.Stats.Booked)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		s.Stats.Remaining = s.Stats.Total - s.Stats.Booked
		shows = append(shows, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shows, nil
}

// Update changes show details. Seats are never regenerated.
func (p *PostgresShowRepository) Update(ctx context.Context, show *domain.Show) error {
	query := `
		UPDATE shows
		SET name = $1, description = $2, show_date = $3, show_time = $4, seat_price = $5,
			updated_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	err := p.db.QueryRow(ctx,
		query,
		show.Name,
		show.Description,
		show.Date,
		show.Time,
		show.SeatPrice,
		show.ID,
		show.Version).Scan(&show.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresShowRepository) Delete(ctx context.Context, id int) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresShowRepository) SetImage(ctx context.Context, id int, kind domain.ImageKind, path string) error {
	var column string

	switch kind {
	case domain.PosterImage:
		column = "poster_path"
	case domain.ThumbnailImage:
		column = "thumbnail_path"
	default:
		return fmt.Errorf("unknown image kind %q", kind)
	}

	return p.setPath(ctx, column, id, path)
}

func (p *PostgresShowRepository) SetQRCode(ctx context.Context, id int, path string) error {
	return p.setPath(ctx, "qr_code_path", id, path)
}

func (p *PostgresShowRepository) setPath(ctx context.Context, column string, id int, path string) error {
	query := fmt.Sprintf(`UPDATE shows SET %s = $1, updated_at = NOW() WHERE id = $2`, column)

	tag, err := p.db.Exec(ctx, query, path, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func showDest(s *domain.Show) []any {
	return []any{
		&s.ID,
		&s.Name,
		&s.Slug,
		&s.Description,
		&s.Date,
		&s.Time,
		&s.SeatPrice,
		&s.IncludeBalcony,
		&s.PosterPath,
		&s.ThumbnailPath,
		&s.QRCodePath,
		&s.CreatedAt,
		&s.Version,
	}
}

func scanShow(row pgx.Row) (*domain.Show, error) {
	var show domain.Show

	if err := row.Scan(showDest(&show)...); err != nil {
		return nil, err
	}

	return &show, nil
}
