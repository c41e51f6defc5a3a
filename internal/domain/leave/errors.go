package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation marks bad input shapes or values. No state was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a request is not in the state
	// the attempted action requires. No state was mutated.
	ErrInvalidTransition = errors.New("invalid request state transition")

	// ErrInsufficientBalance is returned when an approval would overdraw the
	// balance and no override was supplied. Distinct from plain validation so
	// callers can offer the override path.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrUnknownLeaveType is returned by ledger operations when the leave
	// type reference is invalid for the tenant.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	ErrLeaveTypeNotFound = errors.New("leave type not found")
	ErrRequestNotFound   = errors.New("leave request not found")
	ErrEmployeeInactive  = errors.New("employee is not active")

	// ErrConcurrentModification is returned when a balance delta could not be
	// serialized against another in-flight delta for the same pair. The
	// operation applied nothing; retrying is safe because it re-reads the
	// current balance.
	ErrConcurrentModification = errors.New("concurrent balance modification")
)

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

func invalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// InsufficientBalanceError carries the shortfall details for the UI.
type InsufficientBalanceError struct {
	EmployeeID  string
	LeaveTypeID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available.String(), e.Requested.String())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}
