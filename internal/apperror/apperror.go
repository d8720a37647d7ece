// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperror defines the typed errors returned by the service layer
// and their mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// ErrorType classifies an AppError.
type ErrorType int

const (
	UnknownError ErrorType = iota
	ValidationError
	BadRequestError
	AuthError
	ForbiddenError
	NotFoundError
	ConflictError
	DatabaseError
	InternalError
)

// FieldErrors maps an input field name to the messages collected for it.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Empty reports whether no field has an error.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the field names in sorted order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AppError is the error type handed from services to handlers.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body written for an AppError.
type ErrorResponse struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields,omitempty"`
}

// ToResponse converts the error into its public JSON shape. Internal
// details never leave the process.
func (e *AppError) ToResponse() ErrorResponse {
	msg := e.Message
	if e.StatusCode() >= http.StatusInternalServerError {
		msg = "an unexpected error occurred"
	}
	return ErrorResponse{Error: msg, Fields: e.Fields}
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

// NewValidation builds a 400 carrying the collected field errors.
func NewValidation(fields FieldErrors) *AppError {
	return &AppError{Type: ValidationError, Message: "invalid input", Fields: fields}
}

// NewFieldError is shorthand for a validation error on a single field.
func NewFieldError(field, msg string) *AppError {
	return NewValidation(FieldErrors{field: {msg}})
}

func NewBadRequest(message string, err error) *AppError {
	return New(BadRequestError, message, err)
}

func NewAuth(message string, err error) *AppError {
	return New(AuthError, message, err)
}

func NewForbidden(message string) *AppError {
	return New(ForbiddenError, message, nil)
}

func NewNotFound(message string) *AppError {
	return New(NotFoundError, message, nil)
}

func NewConflict(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

func NewDatabase(message string, err error) *AppError {
	return New(DatabaseError, message, err)
}

func NewInternal(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// FromError unwraps err into an AppError if it is (or wraps) one.
func FromError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	appErr, ok := FromError(err)
	return ok && appErr.Type == errType
}
