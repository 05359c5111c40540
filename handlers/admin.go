// File: loadly/handlers/admin.go
package handlers

import (
	"io"
	"net/http"
	"time"

	"loadly/middleware"
	"loadly/models"
	"loadly/services/admin"
	"loadly/services/api"
	"loadly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the back-office dashboard and listings.
type AdminHandler struct {
	backend   Backend
	snapshots admin.SnapshotStore
	refresh   time.Duration
	secure    bool
}

func NewAdminHandler(backend Backend, snapshots admin.SnapshotStore, refresh time.Duration, secureCookies bool) *AdminHandler {
	return &AdminHandler{backend: backend, snapshots: snapshots, refresh: refresh, secure: secureCookies}
}

// fail reports a backend failure. A rejected credential also drops the mirrored cookie
// so the guard sends the admin back to the login page.
func (ah *AdminHandler) fail(c *gin.Context, err error) {
	if api.IsUnauthorized(err) {
		middleware.ClearAdminCookie(c, ah.secure)
	}
	utils.BackendError(c, err)
}

func (ah *AdminHandler) aggregator(c *gin.Context) *admin.Aggregator {
	sess := requireSession(c)
	if sess == nil {
		return nil
	}
	logger := getLogger(c)
	return admin.NewAggregator(ah.backend.ClientFor(sess.Admin, logger), ah.snapshots, logger)
}

func (ah *AdminHandler) lister(c *gin.Context) *admin.Lister {
	sess := requireSession(c)
	if sess == nil {
		return nil
	}
	return admin.NewLister(ah.backend.ClientFor(sess.Admin, getLogger(c)))
}

// DashboardHandler answers 200 with a populated stats object unless the backend rejects
// the admin token, in which case the admin is sent back to log in.
func (ah *AdminHandler) DashboardHandler(c *gin.Context) {
	agg := ah.aggregator(c)
	if agg == nil {
		return
	}
	ctx := c.Request.Context()
	stats, err := agg.Fetch(ctx)
	// The client has already expired the session copy on a 401/403.
	if api.IsUnauthorized(err) || !requireSession(c).Admin.IsAuthenticated(ctx) {
		getLogger(c).Info("Admin token rejected by backend", zap.Error(err))
		middleware.ClearAdminCookie(c, ah.secure)
		middleware.Deny(c, middleware.AdminLoginPath, "Admin session expired. Please log in again.")
		return
	}
	ok(c, stats)
}

// DashboardStreamHandler pushes fresh stats every refresh interval until the client leaves
// or the admin token is cleared.
func (ah *AdminHandler) DashboardStreamHandler(c *gin.Context) {
	agg := ah.aggregator(c)
	if agg == nil {
		return
	}
	sess := requireSession(c)
	logger := getLogger(c)
	poller := admin.NewPoller(agg, sess.Admin, ah.refresh, logger)
	watchSession(c.Request.Context(), sess, logger)

	updates := make(chan models.DashboardStats, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(c.Request.Context(), func(s models.DashboardStats) {
			select {
			case updates <- s:
			case <-c.Request.Context().Done():
			}
		})
	}()

	openStream(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case s := <-updates:
			c.SSEvent("stats", s)
			return true
		case <-done:
			c.SSEvent("end", gin.H{"reason": "session ended"})
			return false
		}
	})
	logger.Debug("Dashboard stream closed", zap.String("sid", sess.ID))
}

func bindQuery(c *gin.Context) (models.BookingQuery, bool) {
	var q models.BookingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid query", err.Error())
		return q, false
	}
	return q, true
}

func (ah *AdminHandler) ListBookingsHandler(c *gin.Context) {
	l := ah.lister(c)
	if l == nil {
		return
	}
	q, valid := bindQuery(c)
	if !valid {
		return
	}
	page, err := l.Bookings(c.Request.Context(), q)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ok(c, page)
}

func (ah *AdminHandler) ListUsersHandler(c *gin.Context) {
	l := ah.lister(c)
	if l == nil {
		return
	}
	q, valid := bindQuery(c)
	if !valid {
		return
	}
	page, err := l.Users(c.Request.Context(), q)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ok(c, page)
}

func (ah *AdminHandler) ListVehiclesHandler(c *gin.Context) {
	l := ah.lister(c)
	if l == nil {
		return
	}
	q, valid := bindQuery(c)
	if !valid {
		return
	}
	page, err := l.Vehicles(c.Request.Context(), q)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ok(c, page)
}

func (ah *AdminHandler) ListCouponsHandler(c *gin.Context) {
	l := ah.lister(c)
	if l == nil {
		return
	}
	q, valid := bindQuery(c)
	if !valid {
		return
	}
	page, err := l.Coupons(c.Request.Context(), q)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ok(c, page)
}

func (ah *AdminHandler) ListNotificationsHandler(c *gin.Context) {
	l := ah.lister(c)
	if l == nil {
		return
	}
	q, valid := bindQuery(c)
	if !valid {
		return
	}
	page, err := l.Notifications(c.Request.Context(), q)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ok(c, page)
}
