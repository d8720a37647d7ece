// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package accounts implements registration, token-based login and logout,
// password change and the emailed password reset flow.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bloghub/internal/apperror"
	"bloghub/internal/mail"
	"bloghub/internal/models"
	"bloghub/internal/resettoken"
	"bloghub/internal/session"
	"bloghub/internal/store"
	"bloghub/internal/token"
	"bloghub/internal/validate"
)

// Messages returned to clients.
const (
	MsgEmailsMismatch    = "The two Emails must match."
	MsgEmailTaken        = "An account with this Email already exists."
	MsgUsernameTaken     = "A user with that username already exists."
	MsgUsernameInvalid   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgPasswordsMismatch = "The two Passwords must match."
	MsgPasswordIncorrect = "Password is incorrect."
	MsgEmailIncorrect    = "Email is incorrect."
	MsgBadCredentials    = "No active account found with the given credentials"
	MsgTokenInvalid      = "Token is invalid or expired"
	MsgLogoutInvalid     = "Token is invalid or expired."
	MsgResetLinkInvalid  = "The reset link is invalid."
	MsgResetEmailSent    = "We have sent you an email to reset your password."
	MsgPasswordChanged   = "Your password was changed successfully."
	MsgResetLinkValid    = "Credentials are valid."

	msgAlreadyAuthenticated = "You do not have permission to perform this action."
	msgNotAuthenticated     = "Authentication credentials were not provided."
	msgRequired             = "This field is required."
)

// usernamePattern accepts letters, digits and @ . + - _.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// UserRepository is the user storage the service needs.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *models.User) error
	SetPassword(ctx context.Context, userID int64, hash string) error
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// SessionStore tracks outstanding refresh tokens and revocations.
type SessionStore interface {
	Create(ctx context.Context, jti string, data *session.Data) error
	Get(ctx context.Context, jti string) (*session.Data, error)
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service implements the account operations.
type Service struct {
	users     UserRepository
	tokens    *token.Issuer
	sessions  SessionStore
	resets    *resettoken.Generator
	mailer    mail.Sender
	publicURL string
	now       func() time.Time
}

// Config wires a Service.
type Config struct {
	Users    UserRepository
	Tokens   *token.Issuer
	Sessions SessionStore
	Resets   *resettoken.Generator
	Mailer   mail.Sender
	// PublicURL is the externally reachable base URL used in emailed links.
	PublicURL string
}

// NewService creates an account service.
func NewService(cfg Config) *Service {
	return &Service{
		users:     cfg.Users,
		tokens:    cfg.Tokens,
		sessions:  cfg.Sessions,
		resets:    cfg.Resets,
		mailer:    cfg.Mailer,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       time.Now,
	}
}

// UserView is the public shape of an account.
type UserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserView(u *models.User) *UserView {
	return &UserView{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// --- Registration ---

// RegisterInput is the registration request body.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Email2    string `json:"email2" validate:"required,email"`
	Password  string `json:"password" validate:"required,maxbytes=72"`
	Password2 string `json:"password2" validate:"required"`
}

// Register creates an account. Only anonymous callers may register.
func (s *Service) Register(ctx context.Context, actor *models.User, in RegisterInput) (*UserView, error) {
	if actor != nil {
		return nil, apperror.NewForbidden(msgAlreadyAuthenticated)
	}

	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Email2 = strings.TrimSpace(in.Email2)

	fields := validate.Struct(in)

	if _, bad := fields["username"]; !bad {
		if !usernamePattern.MatchString(in.Username) {
			fields.Add("username", MsgUsernameInvalid)
		} else if taken, err := s.users.UsernameExists(ctx, in.Username); err != nil {
			return nil, apperror.NewDatabase("failed to check username", err)
		} else if taken {
			fields.Add("username", MsgUsernameTaken)
		}
	}

	if _, bad := fields["email"]; !bad {
		if in.Email != in.Email2 {
			fields.Add("email", MsgEmailsMismatch)
		} else if taken, err := s.users.EmailExists(ctx, in.Email); err != nil {
			return nil, apperror.NewDatabase("failed to check email", err)
		} else if taken {
			fields.Add("email", MsgEmailTaken)
		}
	}

	if _, bad := fields["password"]; !bad && in.Password != in.Password2 {
		fields.Add("password", MsgPasswordsMismatch)
	}

	if !fields.Empty() {
		return nil, apperror.NewValidation(fields)
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.NewConflict("An account with this username or Email already exists.", err)
		}
		return nil, apperror.NewDatabase("failed to create user", err)
	}

	slog.Info("user registered", "user_id", u.ID, "username", u.Username)
	return newUserView(u), nil
}

// --- Tokens ---

// LoginInput is the token request body. Username may also be an email.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by Login.
type TokenResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// AccessResponse is returned by Refresh.
type AccessResponse struct {
	Access    string `json:"access"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// Login authenticates by username or email (case-insensitive) and issues
// an access and refresh token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	if fields := validate.Struct(in); !fields.Empty() {
		return nil, apperror.NewValidation(fields)
	}

	u, err := s.users.FindByLogin(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, apperror.NewDatabase("failed to load user", err)
	}
	if u == nil || !u.CanAuthenticate() || !u.CheckPassword(in.Password) {
		return nil, apperror.NewAuth(MsgBadCredentials, nil)
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		return nil, apperror.NewDatabase("failed to record login", err)
	}

	pair, err := s.tokens.IssuePair(u.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to issue tokens", err)
	}
	err = s.sessions.Create(ctx, pair.RefreshID, &session.Data{
		UserID:    u.ID,
		CreatedAt: s.now(),
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, apperror.NewInternal("failed to record session", err)
	}

	slog.Info("user logged in", "user_id", u.ID)
	return &TokenResponse{
		Access:    pair.Access,
		Refresh:   pair.Refresh,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AccessResponse, error) {
	if refreshToken == "" {
		return nil, apperror.NewFieldError("refresh", msgRequired)
	}

	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, apperror.NewAuth(MsgTokenInvalid, err)
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to check revocation", err)
	}
	if revoked {
		return nil, apperror.NewAuth(MsgTokenInvalid, nil)
	}
	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to load session", err)
	}
	if sess == nil || sess.UserID != claims.UserID {
		return nil, apperror.NewAuth(MsgTokenInvalid, nil)
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load user", err)
	}
	if u == nil || !u.CanAuthenticate() {
		return nil, apperror.NewAuth(MsgTokenInvalid, nil)
	}

	access, _, err := s.tokens.IssueAccess(u.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to issue token", err)
	}
	return &AccessResponse{
		Access:    access,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes a refresh token belonging to actor.
func (s *Service) Logout(ctx context.Context, actor *models.User, refreshToken string) error {
	if actor == nil {
		return apperror.NewAuth(msgNotAuthenticated, nil)
	}
	if refreshToken == "" {
		return apperror.NewFieldError("refresh_token", msgRequired)
	}

	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil || claims.UserID != actor.ID {
		return apperror.NewFieldError("refresh_token", MsgLogoutInvalid)
	}

	err = s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if errors.Is(err, session.ErrAlreadyRevoked) {
		return apperror.NewFieldError("refresh_token", MsgLogoutInvalid)
	}
	if err != nil {
		return apperror.NewInternal("failed to revoke token", err)
	}

	slog.Info("user logged out", "user_id", actor.ID)
	return nil
}

// Authenticate resolves an access token to an active user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Parse(accessToken, token.TypeAccess)
	if err != nil {
		return nil, apperror.NewAuth(MsgTokenInvalid, err)
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load user", err)
	}
	if u == nil || !u.CanAuthenticate() {
		return nil, apperror.NewAuth(MsgTokenInvalid, nil)
	}
	return u, nil
}

// --- Passwords ---

// ChangePasswordInput is the password change request body.
type ChangePasswordInput struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required,maxbytes=72"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// ChangePassword replaces actor's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, actor *models.User, in ChangePasswordInput) error {
	if actor == nil {
		return apperror.NewAuth(msgNotAuthenticated, nil)
	}

	fields := validate.Struct(in)
	if _, bad := fields["old_password"]; !bad && !actor.CheckPassword(in.OldPassword) {
		fields.Add("old_password", MsgPasswordIncorrect)
	}
	if _, bad := fields["new_password1"]; !bad && in.NewPassword1 != in.NewPassword2 {
		fields.Add("new_password1", MsgPasswordsMismatch)
	}
	if !fields.Empty() {
		return apperror.NewValidation(fields)
	}

	if err := s.setPassword(ctx, actor, in.NewPassword1); err != nil {
		return err
	}
	slog.Info("password changed", "user_id", actor.ID)
	return nil
}

// PasswordResetRequest is the body of a reset email request.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset emails a reset link to the account registered under
// the given address.
func (s *Service) RequestPasswordReset(ctx context.Context, in PasswordResetRequest) error {
	in.Email = strings.TrimSpace(in.Email)
	if fields := validate.Struct(in); !fields.Empty() {
		return apperror.NewValidation(fields)
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return apperror.NewDatabase("failed to load user", err)
	}
	if u == nil {
		return apperror.NewFieldError("email", MsgEmailIncorrect)
	}

	tok, err := s.resets.Make(u)
	if err != nil {
		return apperror.NewInternal("failed to create reset token", err)
	}

	name := u.FullName()
	if name == "" {
		name = u.Username
	}
	msg, err := mail.PasswordReset(u.Email, mail.PasswordResetData{
		Name: name,
		Link: s.ResetLink(resettoken.EncodeUID(u.ID), tok),
	})
	if err != nil {
		return apperror.NewInternal("failed to render reset email", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperror.NewInternal("failed to send reset email", err)
	}

	slog.Info("password reset requested", "user_id", u.ID)
	return nil
}

// ResetLink builds the link a user follows to verify a reset token.
func (s *Service) ResetLink(uid, tok string) string {
	return fmt.Sprintf("%s/api/users/password/reset/%s/%s/", s.publicURL, uid, tok)
}

// VerifyResetToken checks a uid and reset token pair from an emailed link.
func (s *Service) VerifyResetToken(ctx context.Context, uid, tok string) error {
	_, err := s.resolveReset(ctx, uid, tok)
	return err
}

// PasswordResetInput is the body of the reset completion request.
type PasswordResetInput struct {
	NewPassword1 string `json:"new_password1" validate:"required,maxbytes=72"`
	NewPassword2 string `json:"new_password2" validate:"required"`
	Token        string `json:"token" validate:"required"`
	UIDB64       string `json:"uidb64" validate:"required"`
}

// ConfirmPasswordReset sets a new password for the user named by a valid
// uid and reset token. Setting it changes the token signing state, so the
// same token cannot be used again.
func (s *Service) ConfirmPasswordReset(ctx context.Context, in PasswordResetInput) error {
	fields := validate.Struct(in)
	if _, bad := fields["new_password1"]; !bad && in.NewPassword1 != in.NewPassword2 {
		fields.Add("new_password1", MsgPasswordsMismatch)
	}
	if !fields.Empty() {
		return apperror.NewValidation(fields)
	}

	u, err := s.resolveReset(ctx, in.UIDB64, in.Token)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, u, in.NewPassword1); err != nil {
		return err
	}

	slog.Info("password reset completed", "user_id", u.ID)
	return nil
}

// resolveReset returns the user a reset link belongs to. Every failure
// other than a storage error yields the same message.
func (s *Service) resolveReset(ctx context.Context, uid, tok string) (*models.User, error) {
	invalid := apperror.NewAuth(MsgResetLinkInvalid, nil)

	id, err := resettoken.DecodeUID(uid)
	if err != nil {
		return nil, invalid
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load user", err)
	}
	if u == nil || !s.resets.Check(u, tok) {
		return nil, invalid
	}
	return u, nil
}

func (s *Service) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return apperror.NewInternal("failed to hash password", err)
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return apperror.NewDatabase("failed to save password", err)
	}
	u.PasswordHash = hash
	return nil
}
