// Package auth implements the session token lifecycle: issue-on-login,
// validate-on-request, revoke-on-logout. Tokens are HS256 JWTs; a copy of
// the current token is cached per user so re-login and logout take effect
// immediately instead of waiting for the signature expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/darkgooddack/notification-distribution/internal/cache"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/token"
)

// Service owns registration, login, request authentication, and logout.
type Service struct {
	users  repository.UserRepository
	tokens *token.Manager
	cache  cache.TokenCache
	logger *zap.Logger
}

func NewService(
	users repository.UserRepository,
	tokens *token.Manager,
	tokenCache cache.TokenCache,
	logger *zap.Logger,
) *Service {
	return &Service{users: users, tokens: tokens, cache: tokenCache, logger: logger}
}

// Register creates a new account with the notification preference enabled.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:                   uuid.New().String(),
		Username:             req.Username,
		Email:                req.Email,
		PasswordHash:         string(hash),
		ReceiveNotifications: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a fresh token. The previous cache
// entry for the user, if any, is overwritten and its TTL reset, so the old
// token stops validating as soon as the new one exists.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(u.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	// Cache write is best-effort: a login must not fail because the cache is down.
	if err := s.cache.Set(ctx, u.Username, signed, s.tokens.TTL()); err != nil {
		s.logger.Warn("failed to cache token", zap.String("username", u.Username), zap.Error(err))
	}

	return signed, nil
}

// Authenticate validates a presented bearer token and returns the username.
//
// The signature and expiry check always runs. When the cache is reachable
// its copy is authoritative: a missing or different cached value rejects
// the token (logout or re-login happened). When the cache is disabled or
// unreachable the signed token alone is trusted. This is the documented degraded
// mode, not an error.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (string, error) {
	username, err := s.tokens.Verify(tokenString)
	if err != nil {
		return "", err
	}

	stored, err := s.cache.Get(ctx, username)
	switch {
	case err == nil:
		if stored != tokenString {
			return "", domain.ErrInvalidToken
		}
	case errors.Is(err, cache.ErrNotFound):
		return "", domain.ErrInvalidToken
	case errors.Is(err, cache.ErrDisabled):
		// Signature-only mode; nothing to compare.
	default:
		s.logger.Warn("token cache unreachable, trusting signed token",
			zap.String("username", username), zap.Error(err))
	}

	return username, nil
}

// Logout revokes the user's session by deleting the cached token. A second
// logout, or logout with an already-expired token, is a success no-op.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	username, err := s.tokens.Subject(tokenString)
	if err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, username); err != nil {
		s.logger.Warn("failed to delete cached token",
			zap.String("username", username), zap.Error(err))
	}
	return nil
}

// User returns the account for an authenticated username.
func (s *Service) User(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}
