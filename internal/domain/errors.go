package domain

import "errors"

// Domain errors
var (
	// Event errors
	ErrEventNotFound = errors.New("event not found")

	// Staff assignment errors
	ErrStaffNotFound        = errors.New("staff member not found")
	ErrStaffAlreadyAssigned = errors.New("staff member already assigned to event")
	ErrStaffNotAssigned     = errors.New("staff member is not assigned to event")
	ErrStaffBusy            = errors.New("a change for this staff member is already in flight")

	// Validation errors
	ErrInvalidEventID = errors.New("invalid event id")
	ErrInvalidStaffID = errors.New("invalid staff id")
	ErrInvalidWindow  = errors.New("invalid date window")

	// Upstream errors
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUpstreamTimeout     = errors.New("upstream service timed out")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrStaffNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidStaffID) ||
		errors.Is(err, ErrInvalidWindow)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStaffAlreadyAssigned) ||
		errors.Is(err, ErrStaffNotAssigned) ||
		errors.Is(err, ErrStaffBusy)
}

// IsUpstreamError checks if the error came from an upstream service
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamTimeout)
}
