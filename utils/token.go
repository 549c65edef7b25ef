package utils

import (
	"fmt"

	"github.com/fitly/fashion-ai/config"
	"github.com/golang-jwt/jwt/v5"
)

// ValidateToken parses a bearer token issued by the account service and
// checks its HS256 signature against the shared secret. This service only
// consumes tokens; it never issues them.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	})
}
