// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"bloghub/internal/apperror"
	"bloghub/internal/models"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	DenyAnonymous
	DenyNotOwner
)

// Messages returned to clients for denied requests.
const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgNotOwner         = "You do not have permission to perform this action."
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyAnonymous:
		return "deny_anonymous"
	case DenyNotOwner:
		return "deny_not_owner"
	default:
		return "unknown"
	}
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Err converts a denial into the matching AppError: 401 for anonymous
// callers, 403 for authenticated ones. It returns nil for Allow.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case DenyAnonymous:
		return apperror.NewAuth(msgNotAuthenticated, nil)
	default:
		return apperror.NewForbidden(msgNotOwner)
	}
}

// CanCreate decides whether actor may create categories or posts.
func CanCreate(actor *models.User) Decision {
	if actor == nil {
		return DenyAnonymous
	}
	return Allow
}

// CanMutateCategory decides whether actor may update or delete a category.
// Any authenticated user may; categories have no owner.
func CanMutateCategory(actor *models.User) Decision {
	return CanCreate(actor)
}

// CanMutatePost decides whether actor may update or delete post. Only the
// author may.
func CanMutatePost(actor *models.User, post *models.Post) Decision {
	if actor == nil {
		return DenyAnonymous
	}
	if post.AuthorID != actor.ID {
		return DenyNotOwner
	}
	return Allow
}
