package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

const userColumns = `id, username, email, password_hash, role, email_verified,
	phone_number, address, bio, created_at, updated_at, version`

type PostgesUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgesUserRepository {
	return &PostgesUserRepository{
		db: db,
	}
}

func (p *PostgesUserRepository) CreateWithToken(
	ctx context.Context,
	user *domain.User,
	tokenFn func(*domain.User) (*domain.Token, error)) (*domain.Token, error) {

	var token *domain.Token

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at, email_verified, version`

		role := user.Role
		if role == "" {
			role = domain.RoleUser
		}

		err := tx.QueryRow(ctx,
			query,
			user.Username,
			user.Email,
			user.Password.Hash,
			role).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.EmailVerified, &user.Version)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrUserAlreadyExists
			}

			return err
		}

		user.Role = role

		token, err = tokenFn(user)
		if err != nil {
			return err
		}

		return insertToken(ctx, tx, token)
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

func (p *PostgesUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	return p.getOne(ctx, query, email)
}

// GetByLogin accepts either a username or an email address.
func (p *PostgesUserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
		LIMIT 1`

	return p.getOne(ctx, query, login)
}

func (p *PostgesUserRepository) GetById(ctx context.Context, id int) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgesUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(p.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return user, nil
}

func (p *PostgesUserRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.User, *domain.Metadata, error) {

	query := `SELECT COUNT(*) OVER(), ` + userColumns + `
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := p.db.Query(ctx, query, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	totalRecords := 0

	for rows.Next() {
		var user domain.User

		err = rows.Scan(
			&totalRecords,
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Password.Hash,
			&user.Role,
			&user.EmailVerified,
			&user.PhoneNumber,
			&user.Address,
			&user.Bio,
			&user.CreatedAt,
			&user.UpdatedAt,
			&user.Version,
		)
		if err != nil {
			return nil, nil, err
		}

		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	return users, domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize), nil
}

func (p *PostgesUserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users
		SET email = $1, phone_number = $2, address = $3, bio = $4, password_hash = $5,
			updated_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING updated_at, version`

	err := p.db.QueryRow(ctx,
		query,
		user.Email,
		user.PhoneNumber,
		user.Address,
		user.Bio,
		user.Password.Hash,
		user.ID,
		user.Version).Scan(&user.UpdatedAt, &user.Version)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.ErrEditConflict
		case isUniqueViolation(err):
			return domain.ErrUserAlreadyExists
		default:
			return err
		}
	}

	return nil
}

// VerifyEmail marks the email as verified and drops all verification codes.
func (p *PostgesUserRepository) VerifyEmail(ctx context.Context, user *domain.User) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `UPDATE users
			SET email_verified = TRUE, updated_at = NOW(), version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING email_verified, updated_at, version`

		err := tx.QueryRow(ctx, query, user.ID, user.Version).
			Scan(&user.EmailVerified, &user.UpdatedAt, &user.Version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrEditConflict
			}

			return err
		}

		return deleteTokens(ctx, tx, domain.EmailVerificationScope, user.ID)
	})
}

// ResetPassword stores the new password hash and drops all reset codes.
func (p *PostgesUserRepository) ResetPassword(ctx context.Context, user *domain.User) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `UPDATE users
			SET password_hash = $1, updated_at = NOW(), version = version + 1
			WHERE id = $2 AND version = $3
			RETURNING updated_at, version`

		err := tx.QueryRow(ctx, query, user.Password.Hash, user.ID, user.Version).
			Scan(&user.UpdatedAt, &user.Version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrEditConflict
			}

			return err
		}

		return deleteTokens(ctx, tx, domain.PasswordResetScope, user.ID)
	})
}

func (p *PostgesUserRepository) UpdateRole(ctx context.Context, id int, role domain.Role) error {
	query := `UPDATE users SET role = $1, updated_at = NOW(), version = version + 1 WHERE id = $2`

	tag, err := p.db.Exec(ctx, query, role, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password.Hash,
		&user.Role,
		&user.EmailVerified,
		&user.PhoneNumber,
		&user.Address,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
