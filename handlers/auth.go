package handlers

import (
	"errors"
	"io"
	"net/http"

	"loadly/middleware"
	"loadly/models"
	"loadly/services/auth"
	"loadly/services/session"
	"loadly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves sign-in, sign-out and session introspection.
type AuthHandler struct {
	backend Backend
	secure  bool
}

func NewAuthHandler(backend Backend, secureCookies bool) *AuthHandler {
	return &AuthHandler{backend: backend, secure: secureCookies}
}

func (h *AuthHandler) service(c *gin.Context, sess *session.Session) auth.AuthService {
	logger := getLogger(c)
	return auth.NewAuthService(h.backend.ClientFor(nil, logger), sess, logger)
}

// LoginHandler signs a customer or driver in.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	res, err := h.service(c, sess).Login(c.Request.Context(), req)
	if err != nil {
		utils.BackendError(c, err)
		return
	}
	ok(c, res)
}

// RegisterHandler creates a customer or driver account.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	res, err := h.service(c, sess).Register(c.Request.Context(), req)
	if err != nil {
		utils.BackendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": res})
}

// AdminLoginHandler signs an admin in and mirrors the token into the adminToken cookie.
func (h *AuthHandler) AdminLoginHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	res, err := h.service(c, sess).AdminLogin(c.Request.Context(), req)
	if errors.Is(err, auth.ErrAdminAccessDenied) {
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
		return
	}
	if err != nil {
		utils.BackendError(c, err)
		return
	}
	middleware.SetAdminCookie(c, res.Token, h.secure)
	ok(c, res)
}

// LogoutHandler clears every credential of the session, including the admin cookie.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	if err := h.service(c, sess).Logout(c.Request.Context()); err != nil {
		getLogger(c).Error("Failed to clear session", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to log out", err.Error())
		return
	}
	middleware.ClearAdminCookie(c, h.secure)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// SessionHandler reports the unverified user hint for UI branching.
func (h *AuthHandler) SessionHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	ctx := c.Request.Context()
	ok(c, gin.H{
		"authenticated":      sess.Auth.IsAuthenticated(ctx),
		"adminAuthenticated": sess.Admin.CheckAuth(ctx),
		"user":               sess.Auth.GetUserData(ctx),
		"role":               sess.Role(ctx),
	})
}

// SessionEventsHandler streams token change events to an open view until it disconnects.
func (h *AuthHandler) SessionEventsHandler(c *gin.Context) {
	sess := requireSession(c)
	if sess == nil {
		return
	}
	logger := getLogger(c)
	ctx := c.Request.Context()

	events := make(chan session.Event, 8)
	unsubscribe := sess.Bus.Subscribe(func(ev session.Event) {
		select {
		case events <- ev:
		default:
			logger.Warn("Dropping session event for slow client", zap.String("key", ev.Key))
		}
	})
	defer unsubscribe()

	watchSession(ctx, sess, logger)

	openStream(c)
	c.Stream(func(out io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			// Never echo the credential itself to the stream.
			ev.Token = ""
			c.SSEvent("token", ev)
			return true
		}
	})
}

// LoginPageHandler answers the redirect targets of the route guards.
func LoginPageHandler(surface string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": surface, "redirect": c.Query("redirect")})
	}
}
