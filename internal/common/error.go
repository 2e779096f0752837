// Package common defines shared constants and sentinel errors used across
// client and server layers of Quest Board. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors. Field-level failures wrap ErrValidation so callers
	// can tell them apart from remote failures.
	ErrValidation      = errors.New("validation error")
	ErrSelfInterest    = errors.New("you can't express interest in your own quest")
	ErrInvalidState    = errors.New("notification is not pending")
	ErrEmailRegistered = errors.New("email already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
