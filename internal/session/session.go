// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session tracks issued refresh tokens in Valkey and keeps the
// revocation list consulted before a refresh token may mint a new access
// token. Entries expire together with the token they describe.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// sessionPrefix namespaces outstanding refresh sessions by token id.
	sessionPrefix = "refresh:"

	// revokedPrefix namespaces revoked token ids.
	revokedPrefix = "revoked:"
)

// ErrAlreadyRevoked is returned by Revoke when the token id is already on
// the revocation list.
var ErrAlreadyRevoked = errors.New("token already revoked")

// Data describes an outstanding refresh token.
type Data struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store manages refresh sessions and revocations in Valkey.
type Store struct {
	client *redis.Client
}

// NewStore creates a session store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Create records an outstanding refresh token under its id. The entry
// expires when the token does.
func (s *Store) Create(ctx context.Context, jti string, data *Data) error {
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session create: token already expired")
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, sessionPrefix+jti, payload, ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Get returns the session recorded for a token id, or nil if there is none.
func (s *Store) Get(ctx context.Context, jti string) (*Data, error) {
	payload, err := s.client.Get(ctx, sessionPrefix+jti).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Revoke puts a token id on the revocation list until expiresAt and drops
// its session. Returns ErrAlreadyRevoked if it was already listed.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// An expired token can no longer be used; nothing to list.
		ttl = time.Second
	}

	ok, err := s.client.SetNX(ctx, revokedPrefix+jti, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("session revoke: %w", err)
	}
	if !ok {
		return ErrAlreadyRevoked
	}

	if err := s.client.Del(ctx, sessionPrefix+jti).Err(); err != nil {
		return fmt.Errorf("session drop: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id is on the revocation list.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("session revoked check: %w", err)
	}
	return n > 0, nil
}
