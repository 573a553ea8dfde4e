package shared

import "errors"

var (
	// ErrNotFound indicates resource not found, or only present as a soft-deleted row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates malformed input to a create or update.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint violation among active rows.
	ErrDuplicate = errors.New("duplicate value for unique field")
	// ErrReferenced indicates a delete blocked by active referencing rows.
	ErrReferenced = errors.New("record is referenced by active rows")
	// ErrLifecycleManaged indicates an attempt to write store-owned lifecycle columns.
	ErrLifecycleManaged = errors.New("lifecycle columns are managed by the store")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps known sentinel errors onto messages safe to surface to clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrDuplicate):
		return "A record with that value already exists."
	case errors.Is(err, ErrReferenced):
		return "The record is still in use and cannot be removed."
	case errors.Is(err, ErrValidation), errors.Is(err, ErrLifecycleManaged):
		return "The submitted data is invalid."
	default:
		return "Something went wrong. Please try again."
	}
}
