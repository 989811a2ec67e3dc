package domain

import "errors"

// Business-rule errors surfaced by the core workflow. Handlers map these onto
// the response envelope; none of them is retryable.
var (
	// ErrValidation is returned for malformed request shapes
	ErrValidation = errors.New("validation error")
	// ErrInsufficientInventory is returned when requested qty exceeds availability at commit time
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrDiscountInstrumentInvalid is returned when a voucher/coupon is not eligible
	ErrDiscountInstrumentInvalid = errors.New("discount instrument invalid")
	// ErrInvalidStateTransition is returned when an operation is illegal for the current status or actor
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrExpired is returned when the transaction deadline has passed
	ErrExpired = errors.New("transaction expired")
	// ErrNotFound is returned for unknown identifiers
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor is not allowed to act on the resource
	ErrForbidden = errors.New("forbidden")
	// ErrTransientFailure wraps underlying I/O failures; safe to retry, no partial effect
	ErrTransientFailure = errors.New("transient failure")
)
