package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

type PostgresTokenRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTokenRepository(db *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{
		db: db,
	}
}

// Create stores token and invalidates every older code of the same scope.
func (p *PostgresTokenRepository) Create(ctx context.Context, token *domain.Token) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		err := deleteTokens(ctx, tx, token.Scope, int(token.UserId))
		if err != nil {
			return err
		}

		return insertToken(ctx, tx, token)
	})
}

func (p *PostgresTokenRepository) GetLatestForUser(
	ctx context.Context,
	tokenScope string,
	userID int) (*domain.Token, error) {

	query := `SELECT id, hash, user_id, expiry, scope, created_at, attempts
		FROM tokens
		WHERE user_id = $1 AND scope = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var token domain.Token

	err := p.db.QueryRow(ctx, query, userID, tokenScope).Scan(
		&token.ID,
		&token.Hash,
		&token.UserId,
		&token.Expiry,
		&token.Scope,
		&token.CreatedAt,
		&token.Attempts,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &token, nil
}

func (p *PostgresTokenRepository) DeleteAllForUser(ctx context.Context, tokenScope string, userID int) error {
	return deleteTokens(ctx, p.db, tokenScope, userID)
}

func (p *PostgresTokenRepository) RecordFailedAttempt(ctx context.Context, token *domain.Token) (int, error) {
	query := `UPDATE tokens SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`

	err := p.db.QueryRow(ctx, query, token.ID).Scan(&token.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrRecordNotFound
		}

		return 0, err
	}

	return token.Attempts, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertToken(ctx context.Context, db execer, token *domain.Token) error {
	query := `INSERT INTO tokens (hash, user_id, expiry, scope, created_at)
			VALUES($1, $2, $3, $4, $5)`

	_, err := db.Exec(ctx, query, token.Hash, token.UserId, token.Expiry, token.Scope, token.CreatedAt)

	return err
}

func deleteTokens(ctx context.Context, db execer, tokenScope string, userID int) error {
	query := `DELETE FROM tokens WHERE scope = $1 AND user_id = $2`

	_, err := db.Exec(ctx, query, tokenScope, userID)

	return err
}
