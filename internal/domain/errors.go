package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidUsername    = errors.New("username must be between 3 and 64 characters")
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidTitle       = errors.New("title must be between 1 and 255 characters")
	ErrInvalidMessage     = errors.New("message must be between 1 and 4096 characters")
	ErrBrokerUnavailable  = errors.New("message broker unavailable")
)
