package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fitly/fashion-ai/utils"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthContext attaches the user ID from a Bearer token to the request
// context when one is present. Requests without a token pass through
// unauthenticated; handlers that need a user decide for themselves.
func AuthContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if token, err := utils.ValidateToken(tokenString); err == nil && token.Valid {
				if claims, ok := token.Claims.(jwt.MapClaims); ok {
					if userID, ok := claims["user_id"].(string); ok && userID != "" {
						r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
					}
				}
			}
		}
		next(w, r)
	}
}

// GetUserIDFromContext returns the authenticated user's ID, if any.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("no user in context")
	}
	return userID, nil
}
