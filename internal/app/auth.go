package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
)

const (
	verificationEmailTemplate  = "email_verification.tmpl"
	passwordResetEmailTemplate = "password_reset.tmpl"
)

func (app *Application) Signup(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.SignupRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user := domain.User{
		Username: input.Username,
		Email:    input.Email,
		Role:     domain.RoleUser,
	}

	err = user.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	token, err := app.userRepo.CreateWithToken(r.Context(), &user, func(user *domain.User) (*domain.Token, error) {
		return domain.GenerateToken(int64(user.ID), app.now(), domain.EmailVerificationScope)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			logger.Warn("signup attempt for existing username or email")
			// do not reveal which accounts exist
			app.badRequestResponse(w, r, errors.New(ErrInvalidInput))
		default:
			logger.Error("failed to create user", "error", err)
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.sendCode(logger, &user, token, verificationEmailTemplate)

	err = app.writeJSON(w, http.StatusAccepted, toUserResponse(&user), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.VerifyEmailRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, ok := app.redeemCode(w, r, input.Email, input.Code, domain.EmailVerificationScope)
	if !ok {
		return
	}

	if user.EmailVerified {
		logger.Warn("attempt to verify an already verified email")
		app.editConflictResponseWithErr(w, r, errors.New("email is already verified"))
		return
	}

	err = app.userRepo.VerifyEmail(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.startSession(r, user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("email verified", "user_id", user.ID)

	err = app.writeJSON(w, http.StatusOK, toUserResponse(user), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ResendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var input api.ResendCodeRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, ok := app.lookupForCode(w, r, input.Email)
	if !ok {
		return
	}

	if user != nil && !user.EmailVerified {
		if !app.issueCode(w, r, user, domain.EmailVerificationScope, verificationEmailTemplate) {
			return
		}
	}

	resp := api.MessageResponse{Message: "If the account exists and is not verified, a new code has been sent"}

	err = app.writeJSON(w, http.StatusAccepted, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	userId := app.sessionManager.GetInt(r.Context(), SessionKeyUserId.String())
	if userId != 0 {
		resp := api.AlreadyLoggedInResponse{
			Message: "You are already logged in",
		}

		err := app.writeJSON(w, http.StatusOK, resp, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	var input api.LoginRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		logger.Warn("login validation failed")
		app.invalidCredentialsResponse(w, r)
		return
	}

	user, err := app.userRepo.GetByLogin(r.Context(), input.Login)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			logger.Warn("login attempt for non-existent user")
			app.invalidCredentialsResponse(w, r)
		default:
			logger.Error("failed to get user during login", "error", err)
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !match {
		logger.Warn("login failed due to incorrect password")
		app.invalidCredentialsResponse(w, r)
		return
	}

	if !user.EmailVerified {
		logger.Warn("login attempt with unverified email", "user_id", user.ID)
		app.forbiddenResponse(w, r, ErrEmailNotVerified)
		return
	}

	err = app.startSession(r, user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) Logout(w http.ResponseWriter, r *http.Request) {
	userId := app.sessionManager.GetInt(r.Context(), SessionKeyUserId.String())
	if userId == 0 {
		app.notFoundResponse(w, r)
		return
	}

	err := app.sessionManager.Destroy(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input api.PasswordResetRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, ok := app.lookupForCode(w, r, input.Email)
	if !ok {
		return
	}

	if user != nil {
		if !app.issueCode(w, r, user, domain.PasswordResetScope, passwordResetEmailTemplate) {
			return
		}
	}

	resp := api.MessageResponse{Message: "If the account exists, a password reset code has been sent"}

	err = app.writeJSON(w, http.StatusAccepted, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var input api.CompletePasswordResetRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, ok := app.redeemCode(w, r, input.Email, input.Code, domain.PasswordResetScope)
	if !ok {
		return
	}

	err = user.Password.Set(input.NewPassword)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.userRepo.ResetPassword(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.contextGetLogger(r).Info("password reset", "user_id", user.ID)

	w.WriteHeader(http.StatusNoContent)
}

// startSession logs the user in. The session token is renewed to prevent
// session fixation on the privilege change.
func (app *Application) startSession(r *http.Request, userId int) error {
	err := app.sessionManager.RenewToken(r.Context())
	if err != nil {
		return err
	}

	app.sessionManager.Put(r.Context(), SessionKeyUserId.String(), userId)

	return nil
}

// lookupForCode finds the account a code is requested for. A nil user with ok
// set means the account does not exist and the caller should answer as if it did.
func (app *Application) lookupForCode(w http.ResponseWriter, r *http.Request, email string) (*domain.User, bool) {
	user, err := app.userRepo.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.contextGetLogger(r).Warn("code requested for unknown email")
			return nil, true
		}

		app.serverErrorResponse(w, r, err)
		return nil, false
	}

	return user, true
}

// issueCode replaces the user's code of the given scope and mails it, unless
// the previous code was sent too recently. It reports false once an error
// response has been written.
func (app *Application) issueCode(w http.ResponseWriter, r *http.Request, user *domain.User, scope, template string) bool {
	now := app.now()

	latest, err := app.tokenRepo.GetLatestForUser(r.Context(), scope, user.ID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		app.serverErrorResponse(w, r, err)
		return false
	}

	// answered like any other request so the throttle does not reveal the account
	if !domain.CanResend(latest, now) {
		app.contextGetLogger(r).Warn("code requested too soon", "user_id", user.ID, "scope", scope)
		return true
	}

	token, err := domain.GenerateToken(int64(user.ID), now, scope)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return false
	}

	err = app.tokenRepo.Create(r.Context(), token)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return false
	}

	app.sendCode(app.contextGetLogger(r), user, token, template)

	return true
}

// redeemCode checks a one-time code against the latest code of the scope.
// Unknown accounts are reported like a wrong code. A code is revoked after
// MaxCodeAttempts wrong guesses.
func (app *Application) redeemCode(w http.ResponseWriter, r *http.Request, email, code, scope string) (*domain.User, bool) {
	user, err := app.userRepo.GetByEmail(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.fieldErrorResponse(w, r, "code", ErrCodeInvalid)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	token, err := app.tokenRepo.GetLatestForUser(r.Context(), scope, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.fieldErrorResponse(w, r, "code", ErrCodeInvalid)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return nil, false
	}

	if token.Exhausted() {
		app.fieldErrorResponse(w, r, "code", ErrCodeRevoked)
		return nil, false
	}

	if !token.Matches(code) {
		app.contextGetLogger(r).Warn("wrong one-time code", "user_id", user.ID, "scope", scope)

		attempts, err := app.tokenRepo.RecordFailedAttempt(r.Context(), token)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return nil, false
		}

		if attempts >= domain.MaxCodeAttempts {
			app.contextGetLogger(r).Warn("one-time code revoked", "user_id", user.ID, "scope", scope)

			err = app.tokenRepo.DeleteAllForUser(r.Context(), scope, user.ID)
			if err != nil {
				app.serverErrorResponse(w, r, err)
				return nil, false
			}

			app.fieldErrorResponse(w, r, "code", ErrCodeRevoked)
			return nil, false
		}

		app.fieldErrorResponse(w, r, "code", ErrCodeInvalid)
		return nil, false
	}

	if token.Expired(app.now()) {
		app.fieldErrorResponse(w, r, "code", ErrCodeExpired)
		return nil, false
	}

	return user, true
}

func (app *Application) sendCode(logger *slog.Logger, user *domain.User, token *domain.Token, template string) {
	data := map[string]any{
		"username": user.Username,
		"code":     token.Plaintext,
	}

	app.background(logger, func() {
		err := app.mailer.Send(user.Email, template, data)
		if err != nil {
			logger.Error("failed to send one-time code", "error", err, "scope", token.Scope)
			return
		}

		logger.Info("one-time code sent", "scope", token.Scope)
	})
}
