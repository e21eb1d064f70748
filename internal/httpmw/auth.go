// Package httpmw contains HTTP middleware for the job-apply service.
package httpmw

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/patrykgolabek/jobapply/internal/auth"
)

// ContextKey is a type for context keys.
type ContextKey string

// UserClaimsKey is the context key under which AuthUser is stored.
const UserClaimsKey ContextKey = "user_claims"

// AuthUser is the unified caller identity attached to the request context by
// Auth, regardless of which of the two supported mechanisms authenticated it.
type AuthUser struct {
	UserID string
	Email  string
	Name   string
}

// GetAuthUser retrieves the authenticated caller from context, if any.
func GetAuthUser(ctx context.Context) *AuthUser {
	user, ok := ctx.Value(UserClaimsKey).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

// AuthConfig configures the Auth middleware.
type AuthConfig struct {
	// Verifier validates dashboard-issued Bearer JWTs via JWKS.
	Verifier *auth.Verifier

	// SharedSecret, if set, lets a caller authenticate with an
	// `Authorization: Shared <secret>` header instead of a JWT - intended for
	// local development only.
	SharedSecret string

	// AllowUnauthenticated disables auth entirely (local dev only). When
	// true, every request is treated as an anonymous dev user.
	AllowUnauthenticated bool

	Logger *slog.Logger
}

// Auth returns authentication middleware supporting a dashboard Bearer JWT
// (verified via JWKS), a dev-mode shared secret, or - when explicitly
// configured - no authentication at all.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.AllowUnauthenticated {
				ctx := context.WithValue(r.Context(), UserClaimsKey, &AuthUser{UserID: "dev"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}

			if cfg.SharedSecret != "" && strings.HasPrefix(authHeader, "Shared ") {
				provided := strings.TrimPrefix(authHeader, "Shared ")
				if !hmac.Equal([]byte(sha256Sum(provided)), []byte(sha256Sum(cfg.SharedSecret))) {
					writeUnauthorized(w, "invalid shared secret")
					return
				}
				ctx := context.WithValue(r.Context(), UserClaimsKey, &AuthUser{UserID: "shared-secret"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if cfg.Verifier == nil {
				writeUnauthorized(w, "authentication not configured")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := cfg.Verifier.VerifyToken(token)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("jwt validation failed", "error", err)
				}
				writeUnauthorized(w, "invalid token")
				return
			}

			user := &AuthUser{UserID: claims.UserID, Email: claims.Email, Name: claims.Name}
			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sha256Sum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return string(sum[:])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
