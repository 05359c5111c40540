package handlers

import (
	"net/http"

	"loadly/middleware"
	"loadly/services/session"
	"loadly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request-scoped Zap logger from the Gin context.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

// requireSession returns the request's session or writes a 500 and returns nil.
func requireSession(c *gin.Context) *session.Session {
	sess := middleware.GetSession(c)
	if sess == nil {
		utils.JSONError(c, http.StatusInternalServerError, "Session unavailable", "session middleware not installed")
		return nil
	}
	return sess
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
