package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mannat244/AstroApp/pkg/auth"
)

// JWTAuth extracts the requester identity from a bearer token and stashes it
// in the gin context for the booking handlers.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, err := auth.ParseValidate(secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("sub", claims.Sub)
		c.Set("name", claims.Name)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func requester(c *gin.Context) (id, name, email string) {
	if v, ok := c.Get("sub"); ok {
		id, _ = v.(string)
	}
	if v, ok := c.Get("name"); ok {
		name, _ = v.(string)
	}
	if v, ok := c.Get("email"); ok {
		email, _ = v.(string)
	}
	return
}
