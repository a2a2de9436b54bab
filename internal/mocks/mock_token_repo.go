package mocks

import (
	"context"

	"github.com/ravenent/show-booking-system/internal/domain"
)

// MockTokenRepo is a mock implementation of TokenRepository
type MockTokenRepo struct {
	domain.TokenRepository
	CreateFunc           func(ctx context.Context, token *domain.Token) error
	GetLatestForUserFunc func(ctx context.Context, tokenScope string, userID int) (*domain.Token, error)
	DeleteAllForUserFunc func(ctx context.Context, tokenScope string, userID int) error

	RecordFailedAttemptFunc func(ctx context.Context, token *domain.Token) (int, error)
}

func (m *MockTokenRepo) Create(ctx context.Context, token *domain.Token) error {
	return m.CreateFunc(ctx, token)
}

func (m *MockTokenRepo) GetLatestForUser(ctx context.Context, tokenScope string, userID int) (*domain.Token, error) {
	return m.GetLatestForUserFunc(ctx, tokenScope, userID)
}

func (m *MockTokenRepo) DeleteAllForUser(ctx context.Context, tokenScope string, userID int) error {
	return m.DeleteAllForUserFunc(ctx, tokenScope, userID)
}

// RecordFailedAttempt falls back to counting on top of the token's attempts
// without mutating it, so shared fixtures stay untouched.
func (m *MockTokenRepo) RecordFailedAttempt(ctx context.Context, token *domain.Token) (int, error) {
	if m.RecordFailedAttemptFunc == nil {
		return token.Attempts + 1, nil
	}
	return m.RecordFailedAttemptFunc(ctx, token)
}
