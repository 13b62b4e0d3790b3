package ledger

import (
	"errors"
	"fmt"
)

// Error kinds returned by the ledger core.
var (
	ErrProfileMissing      = errors.New("ledger: profile missing")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrInvalidAmount       = errors.New("ledger: invalid amount")
	ErrRechargeMissing     = errors.New("ledger: recharge missing")
	ErrUserMissing         = errors.New("ledger: user missing")
	ErrStoreUnavailable    = errors.New("ledger: store unavailable")
	ErrUnauthorized        = errors.New("ledger: unauthorized")

	ErrOrderMissing      = errors.New("ledger: order missing")
	ErrInvalidTransition = errors.New("ledger: invalid order status transition")
	ErrInvalidInput      = errors.New("ledger: invalid input")
)

// Errors returned by Store implementations.
var (
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
)

// StoreError is an infrastructure failure observed while talking to the store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger: %s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }

var codes = []struct {
	err  error
	code string
}{
	{ErrProfileMissing, "profile_missing"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrRechargeMissing, "recharge_missing"},
	{ErrUserMissing, "user_missing"},
	{ErrUnauthorized, "unauthorized"},
	{ErrOrderMissing, "order_missing"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrInvalidInput, "invalid_input"},
	{ErrAlreadyExists, "already_exists"},
	{ErrNotFound, "not_found"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Code maps err onto a stable, machine-checkable kind. Unknown errors map to "internal".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// wrapStore passes ledger kinds through untouched and turns anything else into a StoreError.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if Code(err) != "internal" {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
