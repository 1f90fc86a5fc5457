package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"washsync-backend/internal/machine"
	"washsync-backend/internal/store"
)

const identityKey = "auth.identity"

// Middleware authenticates the bearer token and stores the caller's identity
// on the gin context.
func Middleware(secret string, s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, err := ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		user, err := s.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
				return
			}
			log.Printf("[auth] failed to load user %d: %v", userID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(identityKey, machine.Identity{
			UserID:   user.ID,
			BranchID: user.BranchID,
			IsAdmin:  user.IsAdmin,
		})
		c.Next()
	}
}

// RequireAdmin rejects callers that are not admins. It must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c *gin.Context) (machine.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return machine.Identity{}, false
	}
	id, ok := v.(machine.Identity)
	return id, ok
}
