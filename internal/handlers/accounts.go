// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloghub/internal/accounts"
	"bloghub/internal/middleware"
	"bloghub/internal/models"
)

// AccountService is the account logic the handlers call.
type AccountService interface {
	Register(ctx context.Context, actor *models.User, in accounts.RegisterInput) (*accounts.UserView, error)
	Login(ctx context.Context, in accounts.LoginInput) (*accounts.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*accounts.AccessResponse, error)
	Logout(ctx context.Context, actor *models.User, refreshToken string) error
	ChangePassword(ctx context.Context, actor *models.User, in accounts.ChangePasswordInput) error
	RequestPasswordReset(ctx context.Context, in accounts.PasswordResetRequest) error
	VerifyResetToken(ctx context.Context, uid, token string) error
	ConfirmPasswordReset(ctx context.Context, in accounts.PasswordResetInput) error
}

// Accounts groups the /api/users endpoints.
type Accounts struct {
	svc AccountService
}

// NewAccounts creates the account handler group.
func NewAccounts(svc AccountService) *Accounts {
	return &Accounts{svc: svc}
}

// Register creates an account. POST /api/users/register/
func (a *Accounts) Register(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.svc.Register(r.Context(), middleware.UserFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Token exchanges credentials for an access and refresh token pair.
// POST /api/users/token/
func (a *Accounts) Token(w http.ResponseWriter, r *http.Request) {
	var in accounts.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := a.svc.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// TokenRefresh mints a new access token. POST /api/users/token/refresh/
func (a *Accounts) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	access, err := a.svc.Refresh(r.Context(), in.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

// Logout revokes a refresh token. POST /api/users/logout/
func (a *Accounts) Logout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.svc.Logout(r.Context(), middleware.UserFromCtx(r.Context()), in.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PasswordChange replaces the caller's password.
// PATCH /api/users/password/change/
func (a *Accounts) PasswordChange(w http.ResponseWriter, r *http.Request) {
	var in accounts.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.svc.ChangePassword(r.Context(), middleware.UserFromCtx(r.Context()), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, accounts.MsgPasswordChanged)
}

// PasswordResetRequest emails a reset link. POST /api/users/password/reset/
func (a *Accounts) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var in accounts.PasswordResetRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.svc.RequestPasswordReset(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, accounts.MsgResetEmailSent)
}

// PasswordResetCheck validates the uid and token from an emailed link and
// echoes them back for the completion step.
// GET /api/users/password/reset/{uidb64}/{token}/
func (a *Accounts) PasswordResetCheck(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uidb64")
	token := chi.URLParam(r, "token")

	if err := a.svc.VerifyResetToken(r.Context(), uid, token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"success": accounts.MsgResetLinkValid,
		"uidb64":  uid,
		"token":   token,
	})
}

// PasswordResetComplete sets a new password using a verified link.
// PATCH /api/users/password/reset/complete/
func (a *Accounts) PasswordResetComplete(w http.ResponseWriter, r *http.Request) {
	var in accounts.PasswordResetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.svc.ConfirmPasswordReset(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, accounts.MsgPasswordChanged)
}
