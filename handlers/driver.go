package handlers

import (
	"errors"
	"io"
	"net/http"

	"loadly/models"
	"loadly/services/driver"
	"loadly/utils"

	"github.com/gin-gonic/gin"
)

// DriverHandler exposes the driver portal on top of a per-request Coordinator.
type DriverHandler struct {
	backend Backend
}

func NewDriverHandler(backend Backend) *DriverHandler {
	return &DriverHandler{backend: backend}
}

func (h *DriverHandler) coordinator(c *gin.Context) *driver.Coordinator {
	sess := requireSession(c)
	if sess == nil {
		return nil
	}
	logger := getLogger(c)
	return driver.NewCoordinator(h.backend.ClientFor(sess.Auth, logger), logger)
}

// respond writes the coordinator state after a mutation, or the mutation's error.
func (h *DriverHandler) respond(c *gin.Context, coord *driver.Coordinator, err error) {
	if errors.Is(err, driver.ErrInvalidTransition) {
		utils.JSONError(c, http.StatusConflict, "This trip cannot be updated to that status", err.Error())
		return
	}
	if err != nil {
		utils.BackendError(c, err)
		return
	}
	ok(c, coord.Snapshot())
}

// DashboardHandler returns profile, trips, earnings and available bookings.
func (h *DriverHandler) DashboardHandler(c *gin.Context) {
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	coord.RefreshData(c.Request.Context())
	ok(c, coord.Snapshot())
}

// tripAction loads current trips so the lifecycle check sees them, then applies fn.
func (h *DriverHandler) tripAction(fn func(*gin.Context, *driver.Coordinator) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		coord := h.coordinator(c)
		if coord == nil {
			return
		}
		coord.RefreshData(c.Request.Context())
		h.respond(c, coord, fn(c, coord))
	}
}

func (h *DriverHandler) AcceptBookingHandler(c *gin.Context) {
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.AcceptBooking(c.Request.Context(), c.Param("id"))
	})(c)
}

func (h *DriverHandler) RejectBookingHandler(c *gin.Context) {
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.RejectBooking(c.Request.Context(), c.Param("id"))
	})(c)
}

func (h *DriverHandler) ArriveHandler(c *gin.Context) {
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.ArriveAtPickup(c.Request.Context(), c.Param("id"))
	})(c)
}

func (h *DriverHandler) StartTripHandler(c *gin.Context) {
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.StartTrip(c.Request.Context(), c.Param("id"))
	})(c)
}

func (h *DriverHandler) CompleteTripHandler(c *gin.Context) {
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.CompleteTrip(c.Request.Context(), c.Param("id"))
	})(c)
}

func (h *DriverHandler) CancelTripHandler(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	// The reason is optional, so an empty body is fine.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.CancelTrip(c.Request.Context(), c.Param("id"), body.Reason)
	})(c)
}

func (h *DriverHandler) UpdateLocationHandler(c *gin.Context) {
	var loc models.LocationUpdate
	if err := c.ShouldBindJSON(&loc); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid location", err.Error())
		return
	}
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	if err := coord.UpdateLocation(c.Request.Context(), c.Param("id"), loc); err != nil {
		utils.BackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *DriverHandler) UpdateStatusHandler(c *gin.Context) {
	var body struct {
		IsOnline *bool `json:"isOnline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	h.tripAction(func(c *gin.Context, coord *driver.Coordinator) error {
		return coord.UpdateOnlineStatus(c.Request.Context(), *body.IsOnline)
	})(c)
}

func (h *DriverHandler) UpdateProfileHandler(c *gin.Context) {
	var upd models.DriverProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	h.respond(c, coord, coord.UpdateProfile(c.Request.Context(), upd))
}

func (h *DriverHandler) AddVehicleHandler(c *gin.Context) {
	var v models.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid vehicle", err.Error())
		return
	}
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	h.respond(c, coord, coord.AddVehicle(c.Request.Context(), v))
}

func (h *DriverHandler) UpdateVehicleHandler(c *gin.Context) {
	var v models.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid vehicle", err.Error())
		return
	}
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	h.respond(c, coord, coord.UpdateVehicle(c.Request.Context(), c.Param("id"), v))
}

func (h *DriverHandler) DeleteVehicleHandler(c *gin.Context) {
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	h.respond(c, coord, coord.DeleteVehicle(c.Request.Context(), c.Param("id")))
}

// UploadDocumentHandler relays a multipart upload without buffering it.
func (h *DriverHandler) UploadDocumentHandler(c *gin.Context) {
	coord := h.coordinator(c)
	if coord == nil {
		return
	}
	err := coord.UploadDocument(c.Request.Context(), c.Request.Body, c.GetHeader("Content-Type"))
	h.respond(c, coord, err)
}
