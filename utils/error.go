package utils

import (
	"errors"
	"net/http"

	"loadly/services/api"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// BackendError maps an error from the backend client onto a portal response,
// preserving the server message and status where one exists.
func BackendError(c *gin.Context, err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		JSONError(c, status, apiErr.Message, "")
	case errors.Is(err, api.ErrBackendUnreachable):
		JSONError(c, http.StatusBadGateway, "Unable to reach the server. Please check that the backend is running.", err.Error())
	case errors.Is(err, api.ErrInvalidResponse):
		JSONError(c, http.StatusBadGateway, "Invalid server response", err.Error())
	default:
		JSONError(c, http.StatusInternalServerError, err.Error(), "")
	}
}
