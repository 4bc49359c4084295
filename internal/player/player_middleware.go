package player

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leagueforge/leago/internal/middleware"
)

// AuthPlayerKey is the context key holding the caller's resolved player row.
const AuthPlayerKey = "auth_player"

// ResolveMiddleware loads the player row for the authenticated identity
// subject and puts it in the context. Chain it after
// middleware.AuthMiddleware; routes that provision the player row itself
// skip it, since no row exists yet.
func ResolveMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := middleware.Subject(c)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var p Player
		err := db.Where("external_id = ?", subject).First(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Player profile not found for this account"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve player"})
			return
		}

		c.Set(AuthPlayerKey, &p)
		c.Next()
	}
}

// AdminMiddleware requires the resolved player to carry the admin flag. The
// flag lives on the player row, never in the token.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := FromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
			return
		}
		if !p.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "You don't have permission to access this resource",
			})
			return
		}
		c.Next()
	}
}

// FromContext extracts the resolved player from the context.
func FromContext(c *gin.Context) (*Player, error) {
	v, exists := c.Get(AuthPlayerKey)
	if !exists {
		return nil, errors.New("player not found in context")
	}
	p, ok := v.(*Player)
	if !ok {
		return nil, fmt.Errorf("player has unexpected type: %T", v)
	}
	return p, nil
}
