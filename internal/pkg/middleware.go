package pkg

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
)

const (
	AuthCookieName = "auth_token"
	identityKey    = "identity"
	changePassword = "/api/v1/judge/change-password"
)

// RoleAuthMiddleware admits requests carrying a valid token for the given role, read
// from the Authorization header or the auth cookie. A judge whose password must be
// reset can only reach the change-password route.
func RoleAuthMiddleware(tokens *TokenManager, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "authorization required")
			return
		}

		identity, err := tokens.Parse(tokenString)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		if identity.Role != role {
			abortUnauthorized(c, "access denied")
			return
		}

		if identity.ResetRequired && c.FullPath() != changePassword {
			c.AbortWithStatusJSON(http.StatusForbidden, Envelope{
				Success: false,
				Error:   "password reset required",
				Code:    "PASSWORD_RESET_REQUIRED",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by RoleAuthMiddleware.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*Identity)
	return identity, ok
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logging.Log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Error: message})
}
