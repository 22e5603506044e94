package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const usernameKey contextKey = "auth_username"

// Authenticator validates a bearer token and returns the subject username.
// Satisfied by auth.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireAuth guards a route group: it extracts the bearer token, validates
// it, and stores the username on the request context.
// Missing or invalid tokens get a 401 with a distinguishing reason.
func RequireAuth(authn Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authorization header required")
				return
			}

			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				unauthorized(w, "authorization header must use the Bearer scheme")
				return
			}

			username, err := authn.Authenticate(r.Context(), tokenString)
			if err != nil {
				logger.Debug("request rejected",
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Error(err),
				)
				unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsername retrieves the authenticated username stored by RequireAuth.
func GetUsername(ctx context.Context) string {
	v, _ := ctx.Value(usernameKey).(string)
	return v
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
