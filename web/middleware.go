package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	authTokenHeader = "X-Auth-Token"

	ctxKeyUsername = "authUsername"
	ctxKeyRole     = "authRole"
)

// requireAuth guards a route group. With no roles listed, any valid token
// passes; otherwise the token's role must be one of them.
func (s *Server) requireAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(authTokenHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth token"})
			return
		}
		claims, err := s.auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth token"})
			return
		}
		if len(roles) > 0 && !containsRole(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Set(ctxKeyUsername, claims.Username)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
