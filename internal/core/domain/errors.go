package domain

import "errors"

// Common domain errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Ledger errors
var (
	ErrObligationNotFound   = errors.New("obligation not found")
	ErrAlreadySettled       = errors.New("obligation already settled")
	ErrNoMatchingObligation = errors.New("no open obligation of that type for member")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrConcurrencyConflict  = errors.New("member ledger is locked by another operation")
)

// Member errors
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrMemberInactive      = errors.New("member is not active")
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)
