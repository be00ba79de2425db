package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ctxServerID is the gin context key holding the authenticated server id.
const ctxServerID = "server_id"

const tokenIssuer = "patchdeck"

// AgentClaims is the payload of an agent token. Subject carries the server id
// the agent reports for.
type AgentClaims struct {
	jwt.RegisteredClaims
}

// GenerateAgentToken signs an HS256 token binding an agent to serverID.
// A zero ttl issues a token that never expires.
func GenerateAgentToken(secret string, serverID uint, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("agent secret is empty")
	}
	if serverID == 0 {
		return "", errors.New("server id is required")
	}
	now := time.Now()
	claims := AgentClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  strconv.FormatUint(uint64(serverID), 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAgentToken validates tokenStr and returns the server id it was issued for.
func ParseAgentToken(secret, tokenStr string) (uint, error) {
	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(jwt.ErrTokenInvalidSubject, "subject %q", claims.Subject)
	}
	return uint(id), nil
}

// AgentAuthMiddleware protects the data plane.
// It expects the header:  Authorization: Bearer <agent jwt>
// On success it stores the server id in the gin context as "server_id".
func AgentAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization format, expected: Bearer <token>",
			})
			return
		}

		id, err := ParseAgentToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired agent token",
			})
			return
		}

		c.Set(ctxServerID, id)
		c.Next()
	}
}
