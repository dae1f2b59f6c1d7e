// Package authn is gin bearer-token/JWT middleware, reading its
// configuration from internal/config rather than raw environment
// lookups, and producing the {success:false, error:{code, message}}
// envelope on rejection instead of a bare {"error": ...}.
package authn

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds the two supported credential mechanisms: a comma-list of
// static bearer tokens, or an HMAC secret for JWTs.
type Config struct {
	StaticTokens []string
	JWTSecret    string
}

// Middleware builds gin middleware enforcing cfg against every request's
// Authorization header.
func Middleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			abort(c, "missing authorization header")
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, "invalid authorization header format")
			return
		}
		tokenStr := parts[1]

		if cfg.JWTSecret != "" {
			_, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				c.Next()
				return
			}
		}

		for _, t := range cfg.StaticTokens {
			if tokenStr == strings.TrimSpace(t) && t != "" {
				c.Next()
				return
			}
		}

		abort(c, "invalid or expired token")
	}
}

func abort(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
