package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/noteroom/internal/auth"
	"github.com/dkeye/noteroom/internal/domain"
)

const identityKey = "identity"

// RequireAuth verifies the bearer token and stashes the identity for
// handlers downstream.
func (h *Handlers) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		user, err := auth.VerifyToken(token, h.secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}
		c.Set(identityKey, user)
		c.Next()
	}
}

func identity(c *gin.Context) domain.User {
	return c.MustGet(identityKey).(domain.User)
}
