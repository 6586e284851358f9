// Package common defines shared constants and sentinel errors used across
// the backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Caller errors (4xx-equivalent).
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")

	// Credential errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Uniqueness violations (email/phone already taken).
	ErrConflict = errors.New("conflict")

	// One-time-code verification outcomes. The HTTP layer may collapse
	// these into a single client-facing message, but services must keep
	// them distinct for logging.
	ErrNoChallenge  = errors.New("no outstanding challenge")
	ErrExpired      = errors.New("code expired")
	ErrCodeMismatch = errors.New("code mismatch")

	// Email-change state machine ordering violation.
	ErrOldNotVerified = errors.New("current address not verified")

	// Dependency errors (database, SMTP, object storage).
	ErrDependency = errors.New("dependency failure")

	ErrInternal = errors.New("internal error")
)
