// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// userEmailKey is the context key for the authenticated user's email.
const userEmailKey ContextKey = "userEmail"

// TokenValidator validates a bearer token and yields the caller's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (EmailGetter, error)
}

// EmailGetter extracts the account email from token claims.
type EmailGetter interface {
	GetEmail() string
}

// Auth creates middleware that validates JWT bearer tokens and stores the
// authenticated email on the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userEmailKey, claims.GetEmail())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserEmail extracts the authenticated email from the request context.
func GetUserEmail(r *http.Request) (string, error) {
	email, ok := r.Context().Value(userEmailKey).(string)
	if !ok || email == "" {
		return "", fmt.Errorf("user email not found in request context")
	}
	return email, nil
}

// WithUserEmail returns a copy of ctx carrying the given email. Used by
// tests that bypass the middleware.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}
