package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/mailer"
	"github.com/ravenent/show-booking-system/internal/mocks"
	"github.com/ravenent/show-booking-system/internal/validator"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func mustToken(t *testing.T, createdAt time.Time, scope string) *domain.Token {
	t.Helper()

	token, err := domain.GenerateToken(1, createdAt, scope)
	if err != nil {
		t.Fatal(err)
	}

	return token
}

func userWithPassword(t *testing.T, plaintext string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	user := &domain.User{
		ID:            1,
		Username:      "freddie",
		Email:         "freddie@example.com",
		Role:          domain.RoleUser,
		EmailVerified: true,
	}
	user.Password.Hash = hash

	return user
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		input          api.SignupRequest
		createFunc     func(context.Context, *domain.User, func(*domain.User) (*domain.Token, error)) (*domain.Token, error)
		wantStatus     int
		wantErrMessage string
		wantEmail      bool
	}{
		{
			name: "successful signup",
			input: api.SignupRequest{
				Username: "freddie",
				Email:    "freddie@example.com",
				Password: "Pass123!@#",
			},
			createFunc: func(ctx context.Context, u *domain.User, fn func(*domain.User) (*domain.Token, error)) (*domain.Token, error) {
				u.ID = 1
				return fn(u)
			},
			wantStatus: http.StatusAccepted,
			wantEmail:  true,
		},
		{
			name: "invalid password format",
			input: api.SignupRequest{
				Username: "freddie",
				Email:    "freddie@example.com",
				Password: "weak",
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrInvalidPassword,
		},
		{
			name: "invalid username",
			input: api.SignupRequest{
				Username: "freddie mercury",
				Email:    "freddie@example.com",
				Password: "Pass123!@#",
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrInvalidUsername,
		},
		{
			name: "duplicate email or username",
			input: api.SignupRequest{
				Username: "freddie",
				Email:    "existing@example.com",
				Password: "Pass123!@#",
			},
			createFunc: func(ctx context.Context, u *domain.User, fn func(*domain.User) (*domain.Token, error)) (*domain.Token, error) {
				return nil, domain.ErrUserAlreadyExists
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: ErrInvalidInput,
		},
		{
			name: "database failure",
			input: api.SignupRequest{
				Username: "freddie",
				Email:    "freddie@example.com",
				Password: "Pass123!@#",
			},
			createFunc: func(ctx context.Context, u *domain.User, fn func(*domain.User) (*domain.Token, error)) (*domain.Token, error) {
				return nil, fmt.Errorf("connection refused")
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mailer.NewMockMailer()

			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{CreateWithTokenFunc: tt.createFunc}
				a.mailer = m
			})

			w, r := executeRequest(t, http.MethodPost, "/auth/signup", tt.input)

			app.Signup(w, r)
			app.Wait()

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("Signup() status = %v, want %v", got, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusAccepted {
				var response api.UserResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				if err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if response.Id != 1 {
					t.Errorf("Expected id=1 in response, got %v", response.Id)
				}
				if response.EmailVerified {
					t.Error("Expected EmailVerified=false")
				}
				if response.Role != string(domain.RoleUser) {
					t.Errorf("Expected role=User, got %v", response.Role)
				}
			}

			emails := m.GetSentEmails()
			if tt.wantEmail {
				if len(emails) != 1 {
					t.Fatalf("Expected 1 email, got %d", len(emails))
				}
				if emails[0].TemplateFile != verificationEmailTemplate {
					t.Errorf("Template = %v, want %v", emails[0].TemplateFile, verificationEmailTemplate)
				}

				data := emails[0].Data.(map[string]any)
				if code, _ := data["code"].(string); len(code) != 6 {
					t.Errorf("Expected a 6 digit code, got %q", code)
				}
			} else if len(emails) != 0 {
				t.Errorf("Expected no email, got %d", len(emails))
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	valid := mustToken(t, testNow.Add(-time.Minute), domain.EmailVerificationScope)
	expired := mustToken(t, testNow.Add(-domain.OneTimeCodeTTL-time.Second), domain.EmailVerificationScope)

	unverified := func(ctx context.Context, email string) (*domain.User, error) {
		return &domain.User{ID: 1, Email: email, Version: 1}, nil
	}

	tests := []struct {
		name           string
		code           string
		getByEmailFunc func(context.Context, string) (*domain.User, error)
		latestFunc     func(context.Context, string, int) (*domain.Token, error)
		verifyFunc     func(context.Context, *domain.User) error
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "successful verification",
			code:           valid.Plaintext,
			getByEmailFunc: unverified,
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return valid, nil
			},
			verifyFunc: func(ctx context.Context, u *domain.User) error {
				u.EmailVerified = true
				return nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown email",
			code: "123456",
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeInvalid,
		},
		{
			name:           "no code issued",
			code:           "123456",
			getByEmailFunc: unverified,
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeInvalid,
		},
		{
			name:           "wrong code",
			code:           wrongCode(valid.Plaintext),
			getByEmailFunc: unverified,
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return valid, nil
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeInvalid,
		},
		{
			name:           "expired code",
			code:           expired.Plaintext,
			getByEmailFunc: unverified,
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return expired, nil
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeExpired,
		},
		{
			name: "already verified",
			code: valid.Plaintext,
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: 1, EmailVerified: true}, nil
			},
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return valid, nil
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "email is already verified",
		},
		{
			name:           "edit conflict",
			code:           valid.Plaintext,
			getByEmailFunc: unverified,
			latestFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
				return valid, nil
			},
			verifyFunc: func(ctx context.Context, u *domain.User) error {
				return domain.ErrEditConflict
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: ErrEditConflict,
		},
		{
			name:           "malformed code",
			code:           "12ab",
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrInvalidOTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{
					GetByEmailFunc:  tt.getByEmailFunc,
					VerifyEmailFunc: tt.verifyFunc,
				}
				a.tokenRepo = &mocks.MockTokenRepo{GetLatestForUserFunc: tt.latestFunc}
			})

			input := api.VerifyEmailRequest{Email: "freddie@example.com", Code: tt.code}
			w, r := executeRequest(t, http.MethodPost, "/auth/verify-email", input)

			handler := app.sessionManager.LoadAndSave(http.HandlerFunc(app.VerifyEmail))
			handler.ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("VerifyEmail() status = %v, want %v", got, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				var response api.UserResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				if err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if !response.EmailVerified {
					t.Error("Expected EmailVerified=true in response")
				}

				if len(w.Result().Cookies()) == 0 {
					t.Error("Expected a session cookie after verification")
				}
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestResendVerificationCode(t *testing.T) {
	tests := []struct {
		name           string
		getByEmailFunc func(context.Context, string) (*domain.User, error)
		latest         *domain.Token
		wantStatus     int
		wantErrMessage string
		wantEmail      bool
	}{
		{
			name: "unknown email is answered silently",
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "verified account gets no code",
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: email, EmailVerified: true}, nil
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "resend within a minute issues no code",
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: email}, nil
			},
			latest:     &domain.Token{CreatedAt: testNow.Add(-30 * time.Second)},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "resend after a minute",
			getByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: email}, nil
			},
			latest:     &domain.Token{CreatedAt: testNow.Add(-61 * time.Second)},
			wantStatus: http.StatusAccepted,
			wantEmail:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mailer.NewMockMailer()

			var created *domain.Token

			app := newTestApplication(func(a *Application) {
				a.mailer = m
				a.userRepo = &mocks.MockUserRepo{GetByEmailFunc: tt.getByEmailFunc}
				a.tokenRepo = &mocks.MockTokenRepo{
					GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
						if tt.latest == nil {
							return nil, domain.ErrRecordNotFound
						}
						return tt.latest, nil
					},
					CreateFunc: func(ctx context.Context, token *domain.Token) error {
						created = token
						return nil
					},
				}
			})

			input := api.ResendCodeRequest{Email: "freddie@example.com"}
			w, r := executeRequest(t, http.MethodPost, "/auth/verify-email/resend", input)

			app.ResendVerificationCode(w, r)
			app.Wait()

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("ResendVerificationCode() status = %v, want %v", got, tt.wantStatus)
			}

			if tt.wantEmail {
				if created == nil {
					t.Fatal("Expected a new code to be stored")
				}
				if !created.Expiry.Equal(testNow.Add(domain.OneTimeCodeTTL)) {
					t.Errorf("Expiry = %v, want %v", created.Expiry, testNow.Add(domain.OneTimeCodeTTL))
				}
				if got := len(m.GetSentEmails()); got != 1 {
					t.Errorf("Expected 1 email, got %d", got)
				}
			} else if got := len(m.GetSentEmails()); got != 0 {
				t.Errorf("Expected no email, got %d", got)
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

type LoginTestSuite struct {
	suite.Suite
	app *Application
}

func (s *LoginTestSuite) SetupTest() {
	s.app = newTestApplication(func(a *Application) {
		a.sessionManager = scs.New()
	})
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginTestSuite))
}

func (s *LoginTestSuite) TestLogin() {
	tests := []struct {
		name           string
		input          api.LoginRequest
		getByLoginFunc func(context.Context, string) (*domain.User, error)
		setupSession   bool
		wantStatus     int
		wantErrMessage string
		wantResponse   *api.AlreadyLoggedInResponse
	}{
		{
			name: "user already is logged in",
			input: api.LoginRequest{
				Login:    "freddie@example.com",
				Password: "Pass123!@#",
			},
			setupSession: true,
			wantStatus:   http.StatusOK,
			wantResponse: &api.AlreadyLoggedInResponse{Message: "You are already logged in"},
		},
		{
			name: "missing password",
			input: api.LoginRequest{
				Login: "freddie@example.com",
			},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
		{
			name: "user not found",
			input: api.LoginRequest{
				Login:    "nobody",
				Password: "Pass123!@#",
			},
			getByLoginFunc: func(ctx context.Context, login string) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
		{
			name: "incorrect password",
			input: api.LoginRequest{
				Login:    "freddie",
				Password: "WrongPass123!@#",
			},
			getByLoginFunc: func(ctx context.Context, login string) (*domain.User, error) {
				return userWithPassword(s.T(), "Pass123!@#"), nil
			},
			wantStatus:     http.StatusUnauthorized,
			wantErrMessage: ErrInvalidCredentials,
		},
		{
			name: "unverified email",
			input: api.LoginRequest{
				Login:    "freddie",
				Password: "Pass123!@#",
			},
			getByLoginFunc: func(ctx context.Context, login string) (*domain.User, error) {
				user := userWithPassword(s.T(), "Pass123!@#")
				user.EmailVerified = false
				return user, nil
			},
			wantStatus:     http.StatusForbidden,
			wantErrMessage: ErrEmailNotVerified,
		},
		{
			name: "database error",
			input: api.LoginRequest{
				Login:    "freddie@example.com",
				Password: "Pass123!@#",
			},
			getByLoginFunc: func(ctx context.Context, login string) (*domain.User, error) {
				return nil, fmt.Errorf("database connection error")
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name: "successful login by username",
			input: api.LoginRequest{
				Login:    "freddie",
				Password: "Pass123!@#",
			},
			getByLoginFunc: func(ctx context.Context, login string) (*domain.User, error) {
				return userWithPassword(s.T(), "Pass123!@#"), nil
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.app.userRepo = &mocks.MockUserRepo{
				GetByLoginFunc: tt.getByLoginFunc,
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/auth/login", tt.input)

			if tt.setupSession {
				r = setupTestSession(s.T(), s.app, r, 1)
			}

			handler := s.app.sessionManager.LoadAndSave(http.HandlerFunc(s.app.Login))
			handler.ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantResponse != nil {
				var response api.AlreadyLoggedInResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
				s.Equal(*tt.wantResponse, response)
			}

			if tt.wantStatus == http.StatusNoContent {
				var sessionCookie *http.Cookie
				for _, cookie := range w.Result().Cookies() {
					if cookie.Name == s.app.sessionManager.Cookie.Name {
						sessionCookie = cookie
						break
					}
				}

				s.Require().NotNil(sessionCookie, "No session cookie found in response")

				ctx, err := s.app.sessionManager.Load(r.Context(), sessionCookie.Value)
				s.Require().NoError(err)

				s.Equal(1, s.app.sessionManager.GetInt(ctx, SessionKeyUserId.String()))
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name           string
		setupSession   bool
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:         "successful logout",
			setupSession: true,
			wantStatus:   http.StatusNoContent,
		},
		{
			name:           "no active session",
			setupSession:   false,
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.sessionManager = scs.New()
			})

			w, r := executeRequest(t, http.MethodPost, "/auth/logout", nil)

			if tt.setupSession {
				r = setupTestSession(t, app, r, 1)
			}

			handler := app.sessionManager.LoadAndSave(http.HandlerFunc(app.Logout))
			handler.ServeHTTP(w, r)

			if got := w.Code; got != tt.wantStatus {
				t.Errorf("Logout() status = %v, want %v", got, tt.wantStatus)
			}

			if tt.setupSession {
				userId := app.sessionManager.GetInt(r.Context(), SessionKeyUserId.String())
				if userId != 0 {
					t.Error("Session was not destroyed")
				}
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestPasswordReset(t *testing.T) {
	valid := mustToken(t, testNow.Add(-2*time.Minute), domain.PasswordResetScope)

	t.Run("request for unknown email is accepted", func(t *testing.T) {
		m := mailer.NewMockMailer()

		app := newTestApplication(func(a *Application) {
			a.mailer = m
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return nil, domain.ErrRecordNotFound
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/auth/password-reset", api.PasswordResetRequest{Email: "ghost@example.com"})

		app.RequestPasswordReset(w, r)
		app.Wait()

		if w.Code != http.StatusAccepted {
			t.Errorf("RequestPasswordReset() status = %v, want %v", w.Code, http.StatusAccepted)
		}
		if got := len(m.GetSentEmails()); got != 0 {
			t.Errorf("Expected no email, got %d", got)
		}
	})

	t.Run("request sends a reset code", func(t *testing.T) {
		m := mailer.NewMockMailer()

		app := newTestApplication(func(a *Application) {
			a.mailer = m
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return &domain.User{ID: 1, Username: "freddie", Email: email, EmailVerified: true}, nil
				},
			}
			a.tokenRepo = &mocks.MockTokenRepo{
				GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
					if scope != domain.PasswordResetScope {
						t.Errorf("scope = %v, want %v", scope, domain.PasswordResetScope)
					}
					return nil, domain.ErrRecordNotFound
				},
				CreateFunc: func(ctx context.Context, token *domain.Token) error {
					return nil
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/auth/password-reset", api.PasswordResetRequest{Email: "freddie@example.com"})

		app.RequestPasswordReset(w, r)
		app.Wait()

		if w.Code != http.StatusAccepted {
			t.Errorf("RequestPasswordReset() status = %v, want %v", w.Code, http.StatusAccepted)
		}

		emails := m.GetSentEmails()
		if len(emails) != 1 || emails[0].TemplateFile != passwordResetEmailTemplate {
			t.Errorf("Expected one %s email, got %+v", passwordResetEmailTemplate, emails)
		}
	})

	t.Run("complete sets the new password", func(t *testing.T) {
		var saved *domain.User

		app := newTestApplication(func(a *Application) {
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return userWithPassword(t, "OldPass123!"), nil
				},
				ResetPasswordFunc: func(ctx context.Context, u *domain.User) error {
					saved = u
					return nil
				},
			}
			a.tokenRepo = &mocks.MockTokenRepo{
				GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
					return valid, nil
				},
			}
		})

		input := api.CompletePasswordResetRequest{
			Email:       "freddie@example.com",
			Code:        valid.Plaintext,
			NewPassword: "NewPass123!",
		}
		w, r := executeRequest(t, http.MethodPut, "/auth/password-reset", input)

		app.CompletePasswordReset(w, r)

		if w.Code != http.StatusNoContent {
			t.Fatalf("CompletePasswordReset() status = %v, want %v", w.Code, http.StatusNoContent)
		}

		match, err := saved.Password.Matches("NewPass123!")
		if err != nil || !match {
			t.Error("Expected the new password to be stored")
		}
	})

	t.Run("complete with wrong code", func(t *testing.T) {
		app := newTestApplication(func(a *Application) {
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return &domain.User{ID: 1}, nil
				},
			}
			a.tokenRepo = &mocks.MockTokenRepo{
				GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
					return valid, nil
				},
			}
		})

		input := api.CompletePasswordResetRequest{
			Email:       "freddie@example.com",
			Code:        wrongCode(valid.Plaintext),
			NewPassword: "NewPass123!",
		}
		w, r := executeRequest(t, http.MethodPut, "/auth/password-reset", input)

		app.CompletePasswordReset(w, r)

		checkErrorResponse(t, w, struct {
			wantStatus     int
			wantErrMessage string
		}{
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeInvalid,
		})
	})

	t.Run("code is revoked after too many wrong guesses", func(t *testing.T) {
		var deletedScope string

		token := mustToken(t, testNow.Add(-time.Minute), domain.PasswordResetScope)
		token.Attempts = domain.MaxCodeAttempts - 1

		app := newTestApplication(func(a *Application) {
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return &domain.User{ID: 1}, nil
				},
			}
			a.tokenRepo = &mocks.MockTokenRepo{
				GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
					return token, nil
				},
				DeleteAllForUserFunc: func(ctx context.Context, scope string, userID int) error {
					deletedScope = scope
					return nil
				},
			}
		})

		input := api.CompletePasswordResetRequest{
			Email:       "freddie@example.com",
			Code:        wrongCode(token.Plaintext),
			NewPassword: "NewPass123!",
		}
		w, r := executeRequest(t, http.MethodPut, "/auth/password-reset", input)

		app.CompletePasswordReset(w, r)

		checkErrorResponse(t, w, struct {
			wantStatus     int
			wantErrMessage string
		}{
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeRevoked,
		})

		if deletedScope != domain.PasswordResetScope {
			t.Errorf("Expected the %s codes to be deleted, got %q", domain.PasswordResetScope, deletedScope)
		}
	})

	t.Run("exhausted code is refused even when correct", func(t *testing.T) {
		token := mustToken(t, testNow.Add(-time.Minute), domain.PasswordResetScope)
		token.Attempts = domain.MaxCodeAttempts

		app := newTestApplication(func(a *Application) {
			a.userRepo = &mocks.MockUserRepo{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.User, error) {
					return userWithPassword(t, "OldPass123!"), nil
				},
				ResetPasswordFunc: func(ctx context.Context, u *domain.User) error {
					t.Error("ResetPassword must not be called")
					return nil
				},
			}
			a.tokenRepo = &mocks.MockTokenRepo{
				GetLatestForUserFunc: func(ctx context.Context, scope string, userID int) (*domain.Token, error) {
					return token, nil
				},
			}
		})

		input := api.CompletePasswordResetRequest{
			Email:       "freddie@example.com",
			Code:        token.Plaintext,
			NewPassword: "NewPass123!",
		}
		w, r := executeRequest(t, http.MethodPut, "/auth/password-reset", input)

		app.CompletePasswordReset(w, r)

		checkErrorResponse(t, w, struct {
			wantStatus     int
			wantErrMessage string
		}{
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: ErrCodeRevoked,
		})
	})
}
