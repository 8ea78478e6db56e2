package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator resolves a session token to a user ID
type TokenValidator interface {
	ValidateJWT(token string) (string, error)
}

// UserLookup loads the account behind a user ID
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", models.CodeUnauthorized, http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", models.CodeUnauthorized, http.StatusUnauthorized)
				return
			}

			userID, err := tokens.ValidateJWT(parts[1])
			if err != nil {
				respondError(w, "Invalid token", models.CodeUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAdmin allows only authenticated users whose email passes isAdmin.
// It must run after AuthMiddleware.
func RequireAdmin(users UserLookup, isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				respondError(w, "Authentication required", models.CodeUnauthorized, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if models.HasCode(err, models.CodeNotFound) {
					respondError(w, "Admin access required", models.CodeForbidden, http.StatusForbidden)
					return
				}
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for admin check")
				respondError(w, "Internal server error", models.CodeInternal, http.StatusInternalServerError)
				return
			}

			if !isAdmin(user.Email) {
				log.Warn().Str("user_id", userID).Str("path", r.URL.Path).Msg("Admin access denied")
				respondError(w, "Admin access required", models.CodeForbidden, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID stores the authenticated user ID in ctx
// and on the enclosing request log entry, if any
func WithUserID(ctx context.Context, userID string) context.Context {
	if ru, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		ru.id = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(token string, tokens TokenValidator) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required")
	}
	return tokens.ValidateJWT(token)
}
