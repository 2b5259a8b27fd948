package repository

import "errors"

var (
	// ErrAccountNotFound represents a missing account record.
	ErrAccountNotFound = errors.New("account not found")
	// ErrPlateNotFound means no account lists the plate.
	ErrPlateNotFound = errors.New("plate not found")
	// ErrPlateTaken means the plate index points at a different account.
	ErrPlateTaken = errors.New("plate registered to another account")
	// ErrPlateListed means the account already lists the plate.
	ErrPlateListed = errors.New("plate already listed on account")
	// ErrSessionNotFound represents a missing session record.
	ErrSessionNotFound = errors.New("session not found")
	// ErrOpenSessionExists means the plate already has an unpaid session.
	ErrOpenSessionExists = errors.New("open session exists for plate")
	// ErrSessionClosed means the session was already paid or invalidated.
	ErrSessionClosed = errors.New("session already closed")
	// ErrStoreUnavailable wraps connectivity failures; callers may retry the
	// whole operation.
	ErrStoreUnavailable = errors.New("store unavailable")
)
