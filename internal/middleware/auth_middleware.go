package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/auth"
)

// AdminCookieName holds the signed admin session token
const AdminCookieName = "oiaa_admin_auth"

// Context keys set by AdminAuth
const (
	ContextAdminEmail = "adminEmail"
	ContextAdminRole  = "adminRole"
)

// AuthMiddleware guards admin routes
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// SessionToken reads the admin token from the session cookie, falling back to a Bearer header
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AdminCookieName); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		if token, err := auth.ExtractBearerToken(header); err == nil {
			return token
		}
		// Raw token without the Bearer prefix
		if raw := strings.Trim(header, "\"' "); strings.Count(raw, ".") == 2 {
			return raw
		}
	}
	return ""
}

// AdminAuth rejects requests without a valid admin session
func (m *AuthMiddleware) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			AbortWithAPIError(c, apperrors.ErrTokenNotFound)
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			AbortWithAPIError(c, err)
			return
		}

		c.Set(ContextAdminEmail, claims.Email)
		c.Set(ContextAdminRole, claims.Role)
		c.Next()
	}
}

// AdminEmail returns the signed-in admin's email, or "" outside an authenticated route
func AdminEmail(c *gin.Context) string {
	return c.GetString(ContextAdminEmail)
}

// SetSessionCookie stores token in the HttpOnly admin cookie
func SetSessionCookie(c *gin.Context, token string, maxAgeSeconds int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookieName, token, maxAgeSeconds, "/", "", secure, true)
}

// ClearSessionCookie expires the admin cookie
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookieName, "", -1, "/", "", secure, true)
}
