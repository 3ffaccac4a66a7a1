package domain

import "errors"

var (
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrUnparsableTime      = errors.New("unparsable time expression")
	ErrAdmissionDenied     = errors.New("admission denied")
	ErrSnoozeLimitExceeded = errors.New("snooze limit exceeded")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBadRecurrence       = errors.New("bad recurrence descriptor")
	ErrCodeInvalid         = errors.New("invalid code")
	ErrCodeExpired         = errors.New("code expired")
	ErrCodeExhausted       = errors.New("code fully redeemed")
)
