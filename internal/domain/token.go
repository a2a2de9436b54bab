package domain

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const (
	EmailVerificationScope string = "email_verification"
	PasswordResetScope     string = "password_reset"

	// OneTimeCodeTTL is the lifetime of a one-time code, measured from issuance.
	OneTimeCodeTTL = 10 * time.Minute
	// OneTimeCodeResendInterval is the minimum gap between two codes of the same scope.
	OneTimeCodeResendInterval = 60 * time.Second
	// MaxCodeAttempts is the number of wrong guesses after which a code is revoked.
	MaxCodeAttempts = 5

	oneTimeCodeDigits = 6
)

// Token is a short numeric one-time code. Only its hash is persisted.
type Token struct {
	ID        int64
	Plaintext string
	Hash      []byte
	UserId    int64
	CreatedAt time.Time
	Expiry    time.Time
	Scope     string
	Attempts  int
}

func GenerateToken(userId int64, now time.Time, scope string) (*Token, error) {
	max := big.NewInt(1_000_000)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}

	plaintext := fmt.Sprintf("%0*d", oneTimeCodeDigits, n.Int64())

	token := &Token{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
		UserId:    userId,
		CreatedAt: now,
		Expiry:    now.Add(OneTimeCodeTTL),
		Scope:     scope,
	}

	return token, nil
}

func HashToken(plaintext string) []byte {
	hash := sha256.Sum256([]byte(plaintext))
	return hash[:]
}

// Expired reports whether the code can no longer be redeemed at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.Expiry)
}

func (t *Token) Matches(plaintext string) bool {
	return subtle.ConstantTimeCompare(t.Hash, HashToken(plaintext)) == 1
}

// Exhausted reports whether too many wrong codes were tried against t.
func (t *Token) Exhausted() bool {
	return t.Attempts >= MaxCodeAttempts
}

// CanResend reports whether a replacement for the latest code may be issued at now.
// A nil latest means no code was ever issued.
func CanResend(latest *Token, now time.Time) bool {
	if latest == nil {
		return true
	}

	return now.Sub(latest.CreatedAt) >= OneTimeCodeResendInterval
}

type TokenRepository interface {
	Create(context.Context, *Token) error
	GetLatestForUser(ctx context.Context, tokenScope string, userID int) (*Token, error)
	DeleteAllForUser(ctx context.Context, tokenScope string, userID int) error
	// RecordFailedAttempt counts a wrong guess against token and returns the new total.
	RecordFailedAttempt(ctx context.Context, token *Token) (int, error)
}
