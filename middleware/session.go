package middleware

import (
	"net/http"

	"loadly/services/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookie  = "sid"
	AdminCookie    = "adminToken"
	sessionCtxKey  = "session"
	requestIDKey   = "requestID"
	sessionMaxAge  = 7 * 24 * 60 * 60
	adminCookieAge = 24 * 60 * 60
)

// StoreFactory opens the token store of one browser session.
type StoreFactory func(sid string) session.Store

// SessionMiddleware attaches the caller's session, issuing a sid cookie on first contact.
func SessionMiddleware(newStore StoreFactory, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, sessionMaxAge, "/", "", secure, true)
		}

		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		logger := zap.L().With(zap.String("requestID", reqID))

		c.Set(requestIDKey, reqID)
		c.Set("logger", logger)
		c.Set(sessionCtxKey, session.New(sid, newStore(sid), session.NewBus(), logger))
		c.Next()
	}
}

// GetSession returns the session attached by SessionMiddleware.
func GetSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionCtxKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// SetAdminCookie mirrors the admin token so page routes can be gated before they render.
func SetAdminCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookie, token, adminCookieAge, "/", "", secure, true)
}

func ClearAdminCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookie, "", -1, "/", "", secure, true)
}
