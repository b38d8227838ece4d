// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package auth

import (
	"context"
	"strings"

	"github.com/jverhulst/portier/internal/platform/apperr"
	"github.com/jverhulst/portier/internal/platform/ctxutil"
	"github.com/jverhulst/portier/internal/platform/mailer"
	"github.com/jverhulst/portier/internal/platform/sec"
	"github.com/jverhulst/portier/internal/users/permissions"
	"github.com/jverhulst/portier/pkg/uuid"
)

// # Service

// Service implements registration, authentication, and credential recovery.
type Service struct {
	users       UserRepository
	sessions    SessionRepository
	resetTokens ResetTokenRepository
	profiles    ProfileInitializer
	hook        BeforeUserCreateHook
	mailTokens  *sec.MailTokenService
	mail        mailer.Sender
	baseURL     string
}

/*
NewService creates the authentication service.

Parameters:
  - users: UserRepository
  - sessions: SessionRepository
  - resetTokens: ResetTokenRepository
  - profiles: ProfileInitializer
  - hook: BeforeUserCreateHook
  - mailTokens: *sec.MailTokenService
  - mail: mailer.Sender
  - baseURL: string (Public origin used to build links in emails)

Returns:
  - *Service
*/
func NewService(
	users UserRepository,
	sessions SessionRepository,
	resetTokens ResetTokenRepository,
	profiles ProfileInitializer,
	hook BeforeUserCreateHook,
	mailTokens *sec.MailTokenService,
	mail mailer.Sender,
	baseURL string,
) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		resetTokens: resetTokens,
		profiles:    profiles,
		hook:        hook,
		mailTokens:  mailTokens,
		mail:        mail,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// # Registration

// RegisterInput is a validated local registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register creates a local account.

Availability pre-checks give friendly field-level conflicts before any work
is done; the unique constraints catch whatever races past them. The first
account ever created is promoted to administrator inside the store
transaction. A fresh account gets an empty profile (best effort) and, unless
the bootstrap promotion already verified it, a verification email.

Parameters:
  - context: context.Context
  - input: RegisterInput (Already validated and normalized by the handler)

Returns:
  - *User: The persisted account
  - error: Conflict with field details, or Internal
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	taken, err := service.users.UsernameTaken(context, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ConflictField(FieldUsername, "Username already taken!")
	}

	if _, err := service.users.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.ConflictField(FieldEmail, "Email is already registered!")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	candidate := &User{
		ID:           uuid.Must(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         permissions.RoleUser,
		Active:       true,
	}

	return service.create(context, candidate, CreationContext{Kind: CreationLocal})
}

// OAuthInput describes an account minted from an OAuth provider callback.
type OAuthInput struct {
	Email       string
	DisplayName string
	Provider    string
}

/*
RegisterOAuth creates an account from a provider callback.

The hook allocates a username from the display name and marks the account
verified, since the provider already proved ownership of the email address.

Parameters:
  - context: context.Context
  - input: OAuthInput

Returns:
  - *User: The persisted account
  - error: Conflict when the email is already registered, or Internal
*/
func (service *Service) RegisterOAuth(context context.Context, input OAuthInput) (*User, error) {
	if _, err := service.users.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.ConflictField(FieldEmail, "Email is already registered!")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	candidate := &User{
		ID:     uuid.Must(),
		Email:  input.Email,
		Role:   permissions.RoleUser,
		Active: true,
	}

	return service.create(context, candidate, CreationContext{
		Kind:        CreationOAuth,
		Provider:    input.Provider,
		DisplayName: input.DisplayName,
	})
}

// create runs the shared tail of both registration paths: hook, persistence
// with bootstrap promotion, profile creation, and the verification mail.
func (service *Service) create(context context.Context, candidate *User, creation CreationContext) (*User, error) {
	user, err := service.hook.BeforeUserCreate(context, candidate, creation)
	if err != nil {
		return nil, err
	}

	if err := service.users.CreateBootstrap(context, user); err != nil {
		return nil, err
	}

	// Best effort: a missing profile row is repaired on first edit, so a
	// failure here must not undo the account.
	if err := service.profiles.EnsureProfile(context, user.ID); err != nil {
		ctxutil.GetLogger(context).Warn("profile creation failed",
			"user_id", user.ID,
			"error", err)
	}

	if !user.EmailVerified {
		service.sendVerificationMail(context, user)
	}

	return user, nil
}

// # Authentication

// LoginInput is a validated sign-in request.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies credentials for a local account.

Each failure mode is reported against the form field it belongs to: unknown
email, locked account, and unverified email land on the email input; a wrong
password lands on the password input. Accounts without a password hash
(OAuth-only) never match any password.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *User: The authenticated account
  - error: Unauthorized with a field detail, or Internal
*/
func (service *Service) Login(context context.Context, input LoginInput) (*User, error) {
	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.UnauthorizedField(FieldEmail, "User email does not exist!")
		}
		return nil, err
	}

	if !user.Active {
		return nil, apperr.UnauthorizedField(FieldEmail, "Your account is currently locked! Please contact your administrator.")
	}

	if !user.EmailVerified {
		return nil, apperr.UnauthorizedField(FieldEmail, "Please verify your email before signing in.")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.UnauthorizedField(FieldPassword, "Wrong password.")
	}

	return user, nil
}

// # Email Verification

/*
VerifyEmail consumes a verification token and marks the account verified.

Parameters:
  - context: context.Context
  - token: string (Signed token from the emailed link)

Returns:
  - error: ValidationError on a bad or expired token
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {
	userID, err := service.mailTokens.Verify(token, sec.PurposeVerifyEmail)
	if err != nil {
		return apperr.ValidationError("Verification link is invalid or expired.",
			apperr.FieldError{Field: FieldToken, Message: "Verification link is invalid or expired."})
	}
	return service.users.MarkEmailVerified(context, userID)
}

// sendVerificationMail mints a verification token and emails the link. Mail
// delivery is best effort; a failure is logged by the sender itself.
func (service *Service) sendVerificationMail(context context.Context, user *User) {
	token, err := service.mailTokens.Generate(user.ID, sec.PurposeVerifyEmail, VerificationTokenTTL)
	if err != nil {
		ctxutil.GetLogger(context).Error("verification token generation failed",
			"user_id", user.ID,
			"error", err)
		return
	}

	service.mail.SendEmail(context, mailer.Email{
		To:      user.Email,
		Subject: "Verify your email address",
		Text: "Welcome, " + user.Username + "!\n\n" +
			"Please confirm your email address by opening the link below:\n\n" +
			service.baseURL + "/verify-email?token=" + token + "\n\n" +
			"The link expires in 24 hours. If you did not create this account, you can ignore this message.",
	})
}

// # Password Recovery

/*
RequestPasswordReset issues a reset token for the account behind an email.

Unknown emails succeed silently so the endpoint cannot be used to probe
which addresses are registered.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Internal on store failure
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	token, err := sec.GenerateSecureToken(ResetTokenBytes)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.resetTokens.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return err
	}

	service.mail.SendEmail(context, mailer.Email{
		To:      user.Email,
		Subject: "Reset your password",
		Text: "Hi " + user.Username + ",\n\n" +
			"A password reset was requested for your account. Open the link below to choose a new password:\n\n" +
			service.baseURL + "/reset-password?token=" + token + "\n\n" +
			"The link expires in 1 hour. If you did not request this, you can ignore this message.",
	})

	return nil
}

/*
ResetPassword consumes a reset token and replaces the password.

Every session of the account is revoked afterwards: a reset usually means
the old credentials are considered compromised.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string (Already validated by the handler)

Returns:
  - error: ValidationError on a bad or expired token, or Internal
*/
func (service *Service) ResetPassword(context context.Context, token string, newPassword string) error {
	userID, err := service.resetTokens.Get(context, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.ValidationError("Reset link is invalid or expired.",
				apperr.FieldError{Field: FieldToken, Message: "Reset link is invalid or expired."})
		}
		return err
	}

	passwordHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.users.UpdatePassword(context, userID, passwordHash); err != nil {
		return err
	}

	if err := service.resetTokens.Delete(context, token); err != nil {
		ctxutil.GetLogger(context).Warn("reset token cleanup failed", "error", err)
	}

	return service.sessions.DeleteAllForUser(context, userID)
}
