// Package middleware validates identity-provider bearer tokens and exposes
// the verified claims through the request context. It knows nothing about
// player rows; resolving the caller to a stored player is layered on top by
// the player package.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leagueforge/leago/pkg/token"
)

const (
	AuthVerifiedKey = "auth_email_verified"
	AuthSubjectKey  = "auth_subject"
	AuthEmailKey    = "auth_email"
)

// AuthMiddleware validates the bearer token minted by the identity provider
// and puts its claims in the request context. It performs no database work;
// chain player.ResolveMiddleware after it on routes that need the caller's
// player row.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtSecret)
		if !ok {
			return
		}
		c.Set(AuthVerifiedKey, claims.EmailVerified)
		c.Set(AuthSubjectKey, claims.Subject)
		c.Set(AuthEmailKey, claims.Email)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwtSecret string) (*token.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return nil, false
	}

	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format. Expected: Bearer <token>"})
		return nil, false
	}

	claims, err := token.Validate(bearerToken[1], jwtSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
		return nil, false
	}
	return claims, true
}

// EmailVerified reports whether the caller's identity token carried a
// verified email address.
func EmailVerified(c *gin.Context) bool {
	v, exists := c.Get(AuthVerifiedKey)
	if !exists {
		return false
	}
	verified, ok := v.(bool)
	return ok && verified
}

// Subject returns the caller's identity-provider subject.
func Subject(c *gin.Context) string {
	v, exists := c.Get(AuthSubjectKey)
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Email returns the email claim from the caller's token.
func Email(c *gin.Context) string {
	v, exists := c.Get(AuthEmailKey)
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}
