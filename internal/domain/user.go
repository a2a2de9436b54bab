package domain

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

type User struct {
	ID            int
	Username      string
	Email         string
	Password      password
	Role          Role
	EmailVerified bool
	PhoneNumber   *string
	Address       *string
	Bio           *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
}

// IsAdmin is the single capability check for venue administration.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type password struct {
	plaintext *string
	Hash      []byte
}

func (p *password) Set(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}

	p.plaintext = &plaintext
	p.Hash = hash

	return nil
}

func (p *password) Matches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.Hash, []byte(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

type UserRepository interface {
	CreateWithToken(context.Context, *User, func(*User) (*Token, error)) (*Token, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetById(ctx context.Context, id int) (*User, error)
	GetAll(ctx context.Context, pagination Pagination) ([]User, *Metadata, error)
	Update(context.Context, *User) error
	VerifyEmail(context.Context, *User) error
	ResetPassword(context.Context, *User) error
	UpdateRole(ctx context.Context, id int, role Role) error
}
