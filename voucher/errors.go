/*
errors.go - Centralized error types for the voucher engine

PURPOSE:
  All error kinds in one place. Callers classify with errors.Is and pull
  details with errors.As; the chat layer maps each kind to a distinct
  operator-facing message.

ERROR CATEGORIES:
  1. Validation errors - bad input, rejected before any mutation
  2. Redemption errors - not found / expired
  3. Codec errors      - nothing scannable / not a voucher token
  4. Storage errors    - persistence failures (never shown raw)

NOT-FOUND SEMANTICS:
  A redeem target that is absent from the active partition yields
  ErrNotFound whether it was already redeemed, deleted, or never existed.
  This merging is deliberate: it keeps redemption from being usable as a
  code-enumeration oracle.
*/
package voucher

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when an operation's input violates a
	// constraint. Validation always precedes mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a redeem target is absent from the
	// active partition. Already-redeemed, deleted and never-existed are
	// indistinguishable to the caller by design.
	ErrNotFound = errors.New("voucher not found")

	// ErrExpired is returned when a redeem target is past its expiry
	// date. The record is left untouched in the active partition.
	ErrExpired = errors.New("voucher expired")

	// ErrTokenNotFound is returned by a Codec when no scannable token is
	// detected in the supplied material.
	ErrTokenNotFound = errors.New("no token detected")

	// ErrTokenFormat is returned by a Codec when a token is detected but
	// its content is not a voucher code.
	ErrTokenFormat = errors.New("token is not a voucher code")

	// ErrStorage is returned when a persist call fails. The triggering
	// operation is rolled back; the process keeps running.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError carries the decoded id so the failure can be logged,
// without distinguishing why the id is absent.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("voucher %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ExpiredError carries the untouched voucher so the operator message can
// name the recipient and the expiry date.
type ExpiredError struct {
	Voucher Voucher
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("voucher %s expired on %s", e.Voucher.ID, e.Voucher.ExpiryDate)
}

func (e *ExpiredError) Unwrap() error { return ErrExpired }

// StorageError wraps a persistence failure with the operation that hit it.
// The underlying cause is kept for logs and must not reach the operator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to operator input rather
// than an internal fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExpired) ||
		IsDecodeError(err)
}

// IsDecodeError returns true if the error came from the token codec.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenFormat)
}
