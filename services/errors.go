// Package services holds the error taxonomy shared by every lifecycle
// service. Controllers map these onto HTTP status codes.
package services

import "errors"

var (
	// ErrValidation means the input itself is malformed or incomplete.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied means the caller's role or ownership does not
	// allow the operation. Absence of a rule also lands here.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStateConflict means the transition is not valid from the entity's
	// current state, including losing a concurrent compare-and-set.
	ErrStateConflict = errors.New("state conflict")

	// ErrNotFound means the target entity does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a uniqueness rule was violated.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyEnrolled means the user already has an enrollment record.
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrInvalidCoupon means the coupon is expired, exhausted, out of
	// scope, or below the minimum order amount.
	ErrInvalidCoupon = errors.New("invalid coupon")

	// ErrInsufficientBalance means a balance payment would go negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyCancelled means the membership's renew window has closed.
	ErrAlreadyCancelled = errors.New("membership already cancelled")

	// ErrOutOfRange means a progress percentage outside [0,100].
	ErrOutOfRange = errors.New("value out of range")

	// ErrExternalDependency means the payment or model provider failed
	// after the retry budget was spent.
	ErrExternalDependency = errors.New("external dependency failure")

	// ErrOutcomeUnknown means the provider call timed out; the result must
	// be reconciled on the next query, never assumed.
	ErrOutcomeUnknown = errors.New("provider outcome unknown")
)
