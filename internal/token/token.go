// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package token issues and validates the HS256 access/refresh JWT pairs
// used as bearer credentials.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type distinguishes access tokens from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var (
	// ErrInvalid covers malformed tokens, bad signatures and unknown claims.
	ErrInvalid = errors.New("token is invalid")

	// ErrExpired is returned for a well-formed token past its expiry.
	ErrExpired = errors.New("token is expired")

	// ErrWrongType is returned when a refresh token is presented where an
	// access token is expected, or the other way around.
	ErrWrongType = errors.New("wrong token type")
)

// Claims is the JWT payload carried by both token types.
type Claims struct {
	UserID    int64 `json:"user_id"`
	TokenType Type  `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is the result of a successful login.
type Pair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshID        string
	RefreshExpiresAt time.Time
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer. Both TTLs must be positive.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the lifetime of access tokens.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// IssuePair creates a fresh access token and refresh token for a user.
func (i *Issuer) IssuePair(userID int64) (*Pair, error) {
	access, accessExp, _, err := i.sign(userID, TypeAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, jti, err := i.sign(userID, TypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{
		Access:           access,
		AccessExpiresAt:  accessExp,
		Refresh:          refresh,
		RefreshID:        jti,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess creates an access token for a user.
func (i *Issuer) IssueAccess(userID int64) (string, time.Time, error) {
	signed, exp, _, err := i.sign(userID, TypeAccess, i.accessTTL)
	return signed, exp, err
}

func (i *Issuer) sign(userID int64, typ Type, ttl time.Duration) (string, time.Time, string, error) {
	now := i.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, jti, nil
}

// Parse validates a token string and checks it is of the expected type.
func (i *Issuer) Parse(tokenStr string, want Type) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.TokenType != want {
		return nil, ErrWrongType
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalid
	}
	return claims, nil
}
