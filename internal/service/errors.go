package service

import "errors"

var (
	// ErrSessionNotFound means no booking session exists under the given id.
	ErrSessionNotFound = errors.New("booking session not found")

	// ErrMissingInformation means a prior step's persisted output is absent
	// or unreadable; the only way forward is a restart.
	ErrMissingInformation = errors.New("missing booking information")

	// ErrInvalidTransition means the requested action is not available from
	// the session's current step. The action is rejected, not fatal.
	ErrInvalidTransition = errors.New("step transition not allowed")

	// ErrPastDate means the delivery date is before today.
	ErrPastDate = errors.New("delivery date is in the past")

	// ErrPhotoRequired means the placement photo reference is missing.
	ErrPhotoRequired = errors.New("placement photo is required")

	// ErrUnknownPlacement means the placement kind is neither private nor public.
	ErrUnknownPlacement = errors.New("unknown placement type")
)
