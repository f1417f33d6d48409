package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthenticated indicates a mutation without a valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUsageLimitExceeded indicates a discount's redemption cap was reached.
	ErrUsageLimitExceeded = errors.New("usage limit exceeded")
	// ErrInvalid indicates the input failed validation.
	ErrInvalid = errors.New("invalid input")
)
