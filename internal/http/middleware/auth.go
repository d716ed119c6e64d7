// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the authentication boundary. Token issuance happens in a
// separate identity service; this API only verifies bearer JWTs and resolves
// the calling user. Every chat and message operation downstream is scoped to
// the user id set here, so a request can never reach a handler without one.
//
// Two modes:
//   - JWT mode (secret configured): requires "Authorization: Bearer <token>"
//     signed with HS256; the user id is taken from the "sub" claim.
//   - Header mode (no secret): trusts the X-User-ID header. Local development
//     and tests only, never production.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// userIDKey is the Gin context key under which the resolved user id is stored.
const userIDKey = "userID"

// Auth returns a Gin middleware that resolves and stores the calling user id.
//
// With a non-empty secret, requests must carry a valid HS256 bearer token;
// failures produce 401 with the standard error envelope. With an empty
// secret, the X-User-ID header is used and absent headers fall through so
// handlers apply their demo-user default.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" {
			if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
				c.Set(userIDKey, h)
			}
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		uid, err := subjectFromToken(token, key)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userIDKey, uid)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header,
// returning "" when the header is absent or malformed.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// subjectFromToken validates an HS256 JWT and returns its "sub" claim.
func subjectFromToken(tokenString string, key []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

// unauthorized aborts with a 401 in the standard error envelope.
func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
