package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPartnerSuspended      = errors.New("partner suspended")
	ErrRateLimitExceeded     = errors.New("rate limit exceeded")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

var permanentErrors = []error{
	ErrInvalidInput, ErrUnsupportedEventType, ErrNotFound, ErrConflict, ErrInsufficientStock,
	ErrInvalidTransition, ErrPartnerSuspended, ErrForbidden,
}

// IsPermanent reports errors that repeating the same request cannot fix.
func IsPermanent(err error) bool {
	for _, target := range permanentErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
