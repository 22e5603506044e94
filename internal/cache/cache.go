// Package cache holds the short-lived credential cache: one bearer token
// per username, expiring with the token itself. The cache is an
// availability optimisation layered over signed tokens: when it is
// disabled or unreachable the auth service falls back to trusting the
// signature alone.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by the disabled implementation; callers treat it
// as "cache not consulted", never as a rejection.
var ErrDisabled = errors.New("token cache disabled")

// ErrNotFound is returned when the key is absent (expired, logged out, or
// never issued). With a reachable cache this is an authoritative miss.
var ErrNotFound = errors.New("token not found in cache")

// TokenCache stores the currently-valid bearer token per username.
type TokenCache interface {
	// Set writes the token with a TTL, overwriting any previous entry
	// (re-login resets the window).
	Set(ctx context.Context, username, token string, ttl time.Duration) error
	// Get returns the stored token or ErrNotFound.
	Get(ctx context.Context, username string) (string, error)
	// Delete removes the entry. Deleting an absent key is a success no-op.
	Delete(ctx context.Context, username string) error
}

// Key builds the cache key for a username.
func Key(username string) string { return "token:" + username }

// Disabled is the no-op cache used when TOKEN_CACHE_ENABLED=false or Redis
// was unreachable at startup. Every read reports ErrDisabled so the auth
// service can degrade to signature-only validation.
type Disabled struct{}

func (Disabled) Set(context.Context, string, string, time.Duration) error { return nil }

func (Disabled) Get(context.Context, string) (string, error) { return "", ErrDisabled }

func (Disabled) Delete(context.Context, string) error { return nil }
