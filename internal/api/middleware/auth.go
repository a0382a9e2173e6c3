package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/playkit/gameroom/internal/api/apierr"
	"github.com/playkit/gameroom/internal/identity"
	"github.com/playkit/gameroom/internal/model"
)

type contextKey string

const (
	profileContextKey contextKey = "profile"
	tokenContextKey   contextKey = "token"
)

// Auth creates authentication middleware
func Auth(identityService *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			profile, err := identityService.Resolve(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			// Add profile and token to context
			ctx := r.Context()
			ctx = context.WithValue(ctx, profileContextKey, profile)
			ctx = context.WithValue(ctx, tokenContextKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetProfile returns the authenticated profile from the request context
func GetProfile(ctx context.Context) *model.Profile {
	profile, _ := ctx.Value(profileContextKey).(*model.Profile)
	return profile
}

// GetToken returns the session token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetProfile returns the authenticated profile or panics
func MustGetProfile(ctx context.Context) *model.Profile {
	profile := GetProfile(ctx)
	if profile == nil {
		panic("no profile in context - auth middleware not applied?")
	}
	return profile
}
