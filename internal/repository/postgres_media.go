package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

type PostgresMediaRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMediaRepository(db *pgxpool.Pool) *PostgresMediaRepository {
	return &PostgresMediaRepository{
		db: db,
	}
}

func (p *PostgresMediaRepository) Create(ctx context.Context, media *domain.MediaFile) error {
	query := `INSERT INTO media_files (show_id, file_path, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := p.db.QueryRow(ctx, query, media.ShowID, media.FilePath, media.Description).
		Scan(&media.ID, &media.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (p *PostgresMediaRepository) GetById(ctx context.Context, id int) (*domain.MediaFile, error) {
	query := `SELECT id, show_id, file_path, description, created_at FROM media_files WHERE id = $1`

	var m domain.MediaFile

	err := p.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.ShowID, &m.FilePath, &m.Description, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &m, nil
}

func (p *PostgresMediaRepository) Delete(ctx context.Context, id int) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
