package middleware

import (
	"net/http"
	"strings"
	"time"

	"loadly/services/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login surfaces the guards redirect to.
const (
	AdminLoginPath  = "/admin/login"
	DriverLoginPath = "/driver/login"
	LoginPath       = "/login"
)

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

func Deny(c *gin.Context, loginPath, message string) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
		return
	}
	c.Redirect(http.StatusFound, loginPath+"?redirect="+c.Request.URL.Path)
	c.Abort()
}

// AdminGuard gates back-office routes on the mirrored admin cookie. The check is advisory;
// the backend re-authorizes every call made with the token.
func AdminGuard(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()
		sess := GetSession(c)

		token, _ := c.Cookie(AdminCookie)
		if token == "" && sess != nil {
			token = sess.Admin.GetToken(c.Request.Context())
		}

		if !session.IsValidToken(token, time.Now()) {
			logger.Info("AdminGuard: rejecting request", zap.String("path", c.Request.URL.Path))
			ClearAdminCookie(c, secure)
			if sess != nil {
				sess.Admin.CheckAuth(c.Request.Context())
			}
			Deny(c, AdminLoginPath, "Admin authentication required")
			return
		}

		// Keep the session copy in step with the cookie the browser presented.
		if sess != nil && sess.Admin.GetToken(c.Request.Context()) != token {
			if err := sess.Admin.SetToken(c.Request.Context(), token); err != nil {
				logger.Warn("AdminGuard: failed to sync admin token", zap.Error(err))
			}
		}
		c.Set("adminToken", token)
		c.Next()
	}
}

// RoleGuard requires a general auth token whose decoded role is one of roles.
// The decoded role is a display hint; consequential checks happen in the backend.
func RoleGuard(loginPath string, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			Deny(c, loginPath, "Authentication required")
			return
		}
		user := sess.Auth.GetUserData(c.Request.Context())
		if user == nil {
			Deny(c, loginPath, "Authentication required")
			return
		}
		if len(allowed) > 0 && !allowed[user.Role] {
			zap.L().Info("RoleGuard: wrong role", zap.String("role", user.Role), zap.String("path", c.Request.URL.Path))
			Deny(c, loginPath, "You do not have access to this area")
			return
		}
		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}

// DriverGuard is RoleGuard for the driver portal.
func DriverGuard() gin.HandlerFunc {
	return RoleGuard(DriverLoginPath, "DRIVER")
}
