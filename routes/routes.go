package routes

import (
	"net/http"
	"time"

	"loadly/handlers"
	"loadly/middleware"
	"loadly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-in, sign-out and session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/login", hb.Auth.LoginHandler)
		api.POST("/register", hb.Auth.RegisterHandler)
		api.POST("/logout", hb.Auth.LogoutHandler)
	}

	sess := r.Group("/api/session")
	{
		sess.GET("", hb.Auth.SessionHandler)
		sess.GET("/events", hb.Auth.SessionEventsHandler)
	}

	r.GET(middleware.LoginPath, handlers.LoginPageHandler("login"))
	r.GET(middleware.DriverLoginPath, handlers.LoginPageHandler("driver-login"))
	r.GET(middleware.AdminLoginPath, handlers.LoginPageHandler("admin-login"))
}

// RegisterDriverRoutes registers the driver portal; every route requires a DRIVER token.
func RegisterDriverRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/driver")
	{
		api.Use(middleware.DriverGuard())
		api.GET("/dashboard", hb.Driver.DashboardHandler)
		api.PUT("/status", hb.Driver.UpdateStatusHandler)
		api.PUT("/profile", hb.Driver.UpdateProfileHandler)
		api.POST("/documents", hb.Driver.UploadDocumentHandler)

		api.POST("/bookings/:id/accept", hb.Driver.AcceptBookingHandler)
		api.POST("/bookings/:id/reject", hb.Driver.RejectBookingHandler)

		api.POST("/trips/:id/arrive", hb.Driver.ArriveHandler)
		api.POST("/trips/:id/start", hb.Driver.StartTripHandler)
		api.POST("/trips/:id/complete", hb.Driver.CompleteTripHandler)
		api.POST("/trips/:id/cancel", hb.Driver.CancelTripHandler)
		api.PUT("/trips/:id/location", hb.Driver.UpdateLocationHandler)

		api.POST("/vehicles", hb.Driver.AddVehicleHandler)
		api.PUT("/vehicles/:id", hb.Driver.UpdateVehicleHandler)
		api.DELETE("/vehicles/:id", hb.Driver.DeleteVehicleHandler)
	}

	pages := r.Group("/driver")
	{
		pages.Use(middleware.DriverGuard())
		pages.GET("/dashboard", hb.Driver.DashboardHandler)
	}
}

// RegisterAdminRoutes registers the back-office, gated on the adminToken cookie.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, secureCookies bool) {
	r.POST("/api/admin/login", hb.Auth.AdminLoginHandler)

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminGuard(secureCookies))
		adminGroup.POST("/logout", hb.Auth.LogoutHandler)
		adminGroup.GET("/dashboard", hb.Admin.DashboardHandler)
		adminGroup.GET("/dashboard/stream", hb.Admin.DashboardStreamHandler)
		adminGroup.GET("/bookings", hb.Admin.ListBookingsHandler)
		adminGroup.GET("/users", hb.Admin.ListUsersHandler)
		adminGroup.GET("/vehicles", hb.Admin.ListVehiclesHandler)
		adminGroup.GET("/coupons", hb.Admin.ListCouponsHandler)
		adminGroup.GET("/notifications", hb.Admin.ListNotificationsHandler)
	}

	pages := r.Group("/admin")
	{
		pages.Use(middleware.AdminGuard(secureCookies))
		pages.GET("/dashboard", hb.Admin.DashboardHandler)
		pages.GET("/bookings", hb.Admin.ListBookingsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "loadly portal", "dependencies": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string, secureCookies bool) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r, hb)
	RegisterDriverRoutes(r, hb)
	RegisterAdminRoutes(r, hb, secureCookies)
}
