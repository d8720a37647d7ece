// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage persists uploaded media. Two backends exist: an
// S3-compatible object store and a local directory served by the app.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store is implemented by every media backend.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Delete removes the object under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

// cleanKey normalises a slash-separated key and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
