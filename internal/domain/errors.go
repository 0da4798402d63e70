// Package domain holds the error taxonomy shared by services, consumers and
// handlers. Sentinels are compared with errors.Is so callers can map them to
// HTTP codes without string matching.
package domain

import "errors"

var (
	// ErrNotFound: the referenced order / material / purchase order does not
	// exist within the caller's tenant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition: the order state machine rejected the move
	// (already terminal, or not reachable from the current status).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTenantMismatch: a row loaded by id belongs to a different tenant.
	// This is a data-integrity violation and must never be silently filtered.
	ErrTenantMismatch = errors.New("tenant mismatch")

	// ErrInvalidInput: a request value survived DTO validation but fails a
	// business rule (malformed id, non-positive quantity).
	ErrInvalidInput = errors.New("invalid input")
)
