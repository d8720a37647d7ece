// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package resettoken creates and checks password reset tokens. A token is
// signed with a key derived from the server secret and the account's
// current state (password hash, last login, email), so changing the
// password or logging in again invalidates every outstanding token.
package resettoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bloghub/internal/models"
)

// ErrInvalid is returned for any token that does not verify. Callers
// should not distinguish between causes.
var ErrInvalid = errors.New("reset token is invalid")

const purpose = "password-reset"

type claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Generator makes and checks reset tokens.
type Generator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGenerator returns a Generator whose tokens are valid for ttl.
func NewGenerator(secret string, ttl time.Duration) *Generator {
	return &Generator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Make returns a reset token for u.
func (g *Generator) Make(u *models.User) (string, error) {
	now := g.now()
	c := claims{
		UserID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   purpose,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.key(u))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Check reports whether token was made for u in its current state and has
// not expired.
func (g *Generator) Check(u *models.User, token string) bool {
	if u == nil || token == "" {
		return false
	}
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c,
		func(*jwt.Token) (any, error) { return g.key(u), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(purpose),
		jwt.WithTimeFunc(g.now),
	)
	return err == nil && c.UserID == u.ID
}

// key derives the per-user signing key from the fields whose change must
// invalidate outstanding tokens.
func (g *Generator) key(u *models.User) []byte {
	var lastLogin string
	if u.LastLogin != nil {
		lastLogin = strconv.FormatInt(u.LastLogin.UTC().UnixMicro(), 10)
	}
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%s|%d|%s|%s|%s", purpose, u.ID, u.PasswordHash, lastLogin, u.Email)
	return mac.Sum(nil)
}

// EncodeUID turns a user id into the opaque uid segment of a reset link.
// It is an encoding, not a secret.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, ErrInvalid
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalid
	}
	return id, nil
}
