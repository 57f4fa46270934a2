package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/itops-hk/itpm-service/internal/auth"
	"github.com/itops-hk/itpm-service/internal/model"
)

const principalKey = "principal"

// Auth parses the bearer token and stores the principal on the gin context.
// Requests without a valid token are rejected with 401.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		principal, err := parser.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAction gates a route on the capability table. Runs after Auth.
func RequireAction(action model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}
		if !principal.Can(action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "您沒有權限執行此操作"})
			return
		}
		c.Next()
	}
}

// RequireAdmin gates a route on the Admin role. Runs after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}
		if !principal.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "您沒有權限執行此操作（需要 Admin 權限）"})
			return
		}
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}

// SetPrincipal injects a principal directly, bypassing token parsing. Test use.
func SetPrincipal(c *gin.Context, principal model.Principal) {
	c.Set(principalKey, principal)
}
